package http

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestHTTP_Listen(t *testing.T) {
	proxy := NewHTTP("")
	require.Nil(t, proxy.GetAddr())

	proxy.RegisterHandler("/fake", fakeHandler)

	go proxy.Listen()
	waitAddr(t, proxy)

	defer proxy.Stop()

	res, err := http.Get("http://" + proxy.GetAddr().String() + "/fake")
	require.NoError(t, err)

	defer res.Body.Close()

	output, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	require.Equal(t, "hello", string(output))
	require.NotEmpty(t, res.Header.Get("X-Request-Id"))
}

func TestHTTP_Listen_BadAddr(t *testing.T) {
	proxy := NewHTTP("bad://xx")

	out := new(bytes.Buffer)
	proxy.logger = zerolog.New(zerolog.ConsoleWriter{Out: out})

	defer func() {
		res := recover()
		require.Regexp(t, "^failed to create conn 'bad://xx':", res)
		require.Regexp(t, "failed to create conn 'bad://xx':", out.String())
	}()

	proxy.Listen()
}

func TestHTTP_RegisterRoute(t *testing.T) {
	proxy := NewHTTP("")

	proxy.RegisterRoute(http.MethodGet, "/missions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chi.URLParam(r, "id") + ":" + RequestID(r)))
	})

	req := httptest.NewRequest(http.MethodGet, "/missions/42", nil)
	req.Header.Set("X-Request-Id", "abc")

	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "42:abc", rec.Body.String())
	require.Equal(t, "abc", rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	proxy.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/missions/42", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	proxy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTP_Recover(t *testing.T) {
	proxy := NewHTTP("")

	out := new(bytes.Buffer)
	proxy.logger = zerolog.New(out)

	proxy.RegisterHandler("/panic", func(http.ResponseWriter, *http.Request) {
		panic("oops")
	})

	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, out.String(), `"status":500`)
}

func TestRequestID(t *testing.T) {
	require.Equal(t, "", RequestID(httptest.NewRequest(http.MethodGet, "/", nil)))
}

// -----------------------------------------------------------------------------
// Utility functions

func waitAddr(t *testing.T, proxy *HTTP) {
	for i := 0; i < 50 && proxy.GetAddr() == nil; i++ {
		time.Sleep(20 * time.Millisecond)
	}

	require.NotNil(t, proxy.GetAddr())
}

func fakeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("hello"))
}
