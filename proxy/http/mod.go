// Package http implements the proxy over an HTTP server routed by chi.
package http

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.missionstake.io/stake"
)

type key int

const (
	requestIDKey key = 0
)

const shutdownTimeout = 10 * time.Second

var requests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "stake_http_requests_total",
	Help: "number of HTTP requests by method and status",
}, []string{"method", "status"})

func init() {
	stake.PromCollectors = append(stake.PromCollectors, requests)
}

// RequestID returns the ID of the request, or an empty string if the request
// did not go through the proxy.
func RequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

// HTTP defines a proxy http
//
// - implements proxy.Proxy
type HTTP struct {
	sync.Mutex

	router     chi.Router
	server     *http.Server
	logger     zerolog.Logger
	listenAddr string
	ln         net.Listener
	quit       chan struct{}
}

// NewHTTP creates a new proxy http. An empty address listens on a random free
// port of the loopback interface.
func NewHTTP(listenAddr string) *HTTP {
	logger := stake.Logger.With().Timestamp().Str("role", "http proxy").Logger()

	if listenAddr == "" {
		listenAddr = "127.0.0.1:0"
	}

	router := chi.NewRouter()

	proxy := &HTTP{
		router:     router,
		logger:     logger,
		listenAddr: listenAddr,
		quit:       make(chan struct{}),
	}

	router.Use(tracing(func() string { return xid.New().String() }))
	router.Use(proxy.logging)
	router.Use(middleware.Recoverer)

	proxy.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return proxy
}

// Listen implements proxy.Proxy. It blocks until Stop() is called. A stopped
// proxy cannot listen again.
func (h *HTTP) Listen() {
	h.logger.Info().Msg("Client server is starting...")

	ln, err := net.Listen("tcp", h.listenAddr)
	if err != nil {
		h.logger.Panic().Msgf("failed to create conn '%s': %v", h.listenAddr, err)
		return
	}

	h.Lock()
	h.ln = ln
	h.Unlock()

	done := make(chan struct{})

	go func() {
		<-h.quit
		h.logger.Info().Msg("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		h.server.SetKeepAlivesEnabled(false)
		err := h.server.Shutdown(ctx)
		if err != nil {
			h.logger.Error().Msgf("Could not gracefully shutdown the server: %v", err)
		}

		close(done)
	}()

	h.logger.Info().Msgf("Server is ready to handle requests at http://%s", ln.Addr())

	err = h.server.Serve(ln)
	if err != nil && err != http.ErrServerClosed {
		h.logger.Error().Msgf("Could not serve on %s: %v", h.listenAddr, err)
	}

	<-done

	h.Lock()
	h.ln = nil
	h.Unlock()

	h.logger.Info().Msg("Server stopped")
}

// Stop implements proxy.Proxy. It must be called once per Listen().
func (h *HTTP) Stop() {
	h.quit <- struct{}{}
}

// GetAddr implements proxy.Proxy.
func (h *HTTP) GetAddr() net.Addr {
	h.Lock()
	defer h.Unlock()

	if h.ln == nil {
		return nil
	}

	return h.ln.Addr()
}

// RegisterHandler implements proxy.Proxy.
func (h *HTTP) RegisterHandler(path string, handler func(http.ResponseWriter, *http.Request)) {
	h.router.HandleFunc(path, handler)
}

// RegisterRoute implements proxy.Proxy.
func (h *HTTP) RegisterRoute(method, pattern string, handler func(http.ResponseWriter, *http.Request)) {
	h.router.MethodFunc(method, pattern, handler)
}

// ServeHTTP implements http.Handler. It serves the request with the routes
// registered so far.
func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// logging is a middleware that logs the requests once they are served.
func (h *HTTP) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			requests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()

			requestID := RequestID(r)
			if requestID == "" {
				requestID = "unknown"
			}

			h.logger.Info().Str("requestID", requestID).
				Str("method", r.Method).
				Str("url", r.URL.Path).
				Int("status", status).
				Dur("duration", time.Since(start)).
				Str("remoteAddr", r.RemoteAddr).
				Str("agent", r.UserAgent()).Msg("")
		}()

		next.ServeHTTP(ww, r)
	})
}

// tracing is a middleware that sets the request ID, reusing the one of the
// client if any.
func tracing(nextRequestID func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-Id")
			if requestID == "" {
				requestID = nextRequestID()
			}

			ctx := context.WithValue(r.Context(), requestIDKey, requestID)
			w.Header().Set("X-Request-Id", requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
