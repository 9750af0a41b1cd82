package json

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.missionstake.io/stake/internal/testing/fake"
	"go.missionstake.io/stake/serde"
)

func TestJSONEngine_GetFormat(t *testing.T) {
	ctx := NewContext()
	require.Equal(t, serde.FormatJSON, ctx.GetFormat())
}

func TestJSONEngine_Marshal(t *testing.T) {
	ctx := NewContext()

	data, err := ctx.Marshal(struct{}{})
	require.NoError(t, err)
	require.Equal(t, `{}`, string(data))

	_, err = ctx.Marshal(badObject{})
	require.EqualError(t, err, fake.Err("json: error calling MarshalJSON for type json.badObject"))
}

func TestJSONEngine_Unmarshal(t *testing.T) {
	ctx := NewContext()

	var m struct {
		A string
	}

	err := ctx.Unmarshal([]byte(`{"A":"B"}`), &m)
	require.NoError(t, err)
	require.Equal(t, "B", m.A)

	err = ctx.Unmarshal(nil, &m)
	require.EqualError(t, err, "EOF")

	err = ctx.Unmarshal([]byte(`{"A":"B","C":1}`), &m)
	require.EqualError(t, err, `json: unknown field "C"`)

	err = ctx.Unmarshal([]byte(`{"A":"B"} {"A":"C"}`), &m)
	require.EqualError(t, err, "unexpected data after JSON value")

	err = ctx.Unmarshal([]byte(`{"A":"B"}   `), &m)
	require.NoError(t, err)
}

func TestJSONEngine_StrictKeys_Unmarshal(t *testing.T) {
	ctx := NewContext()

	type item struct {
		ID int `json:"id"`
	}

	var m struct {
		Name  string `json:"name"`
		Items []item `json:"items"`
		Tags  map[string]int
		Any   interface{}
		Item  *item `json:",omitempty"`
	}

	err := ctx.Unmarshal([]byte(`{"name":"a","items":[{"id":1}],"Tags":{"x":1,"X":2},"Any":{"k":1},"Item":{"id":2}}`), &m)
	require.NoError(t, err)
	require.Equal(t, 2, m.Item.ID)
	require.Len(t, m.Tags, 2)

	err = ctx.Unmarshal([]byte(`{"NAME":"a"}`), &m)
	require.EqualError(t, err, `field "NAME" does not match the schema`)

	err = ctx.Unmarshal([]byte(`{"name":"a","name":"b"}`), &m)
	require.EqualError(t, err, `duplicate field "name"`)

	err = ctx.Unmarshal([]byte(`{"items":[{"id":1},{"ID":2}]}`), &m)
	require.EqualError(t, err, `field "ID" does not match the schema`)

	err = ctx.Unmarshal([]byte(`{"Item":{"id":1,"id":2}}`), &m)
	require.EqualError(t, err, `duplicate field "id"`)

	err = ctx.Unmarshal([]byte(`{"Tags":{"x":1,"x":2}}`), &m)
	require.EqualError(t, err, `duplicate field "x"`)

	err = ctx.Unmarshal([]byte(`{"Any":{"k":1,"k":2}}`), &m)
	require.EqualError(t, err, `duplicate field "k"`)
}

// -----------------------------------------------------------------------------
// Utility functions

type badObject struct{}

func (o badObject) MarshalJSON() ([]byte, error) {
	return nil, fake.GetError()
}
