package serde

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContext_GetFormat(t *testing.T) {
	ctx := NewContext(fakeEngine{})

	require.Equal(t, Format("FAKE"), ctx.GetFormat())
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeEngine struct {
	ContextEngine
}

func (fakeEngine) GetFormat() Format {
	return "FAKE"
}
