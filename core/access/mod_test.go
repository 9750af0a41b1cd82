package access

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x0102030405060708090a0b0c0d0e0f1011121314")
	require.NoError(t, err)
	require.Equal(t, byte(1), addr[0])
	require.Equal(t, byte(0x14), addr[19])
	require.Equal(t, "0102030405060708090a0b0c0d0e0f1011121314", addr.String())

	upper, err := ParseAddress("0X0102030405060708090a0b0c0d0e0f1011121314")
	require.NoError(t, err)
	require.Equal(t, addr, upper)

	bare, err := ParseAddress("0102030405060708090a0b0c0d0e0f1011121314")
	require.NoError(t, err)
	require.Equal(t, addr, bare)

	_, err = ParseAddress("abcd")
	require.EqualError(t, err, "invalid address length 4")

	_, err = ParseAddress("0x0X0102030405060708090a0b0c0d0e0f1011121314")
	require.EqualError(t, err, "invalid address length 42")

	_, err = ParseAddress("0X0x0102030405060708090a0b0c0d0e0f1011121314")
	require.EqualError(t, err, "invalid address length 42")

	_, err = ParseAddress("0x")
	require.EqualError(t, err, "invalid address length 0")

	_, err = ParseAddress("zz02030405060708090a0b0c0d0e0f1011121314")
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed address")
}

func TestMustParseAddress(t *testing.T) {
	require.Panics(t, func() { MustParseAddress("bad") })
}

func TestAddress_Text(t *testing.T) {
	addr := MustParseAddress("0102030405060708090a0b0c0d0e0f1011121314")

	text, err := addr.MarshalText()
	require.NoError(t, err)

	var other Address
	require.NoError(t, other.UnmarshalText(text))
	require.Equal(t, addr, other)

	require.Error(t, other.UnmarshalText([]byte("nope")))
	require.True(t, Address{}.IsZero())
	require.False(t, addr.IsZero())
}

func TestWitness_IsAuthenticated(t *testing.T) {
	alice := Address{1}
	bob := Address{2}

	w := NewWitness(alice, Address{})
	require.Equal(t, 1, w.Signers())
	require.True(t, w.IsAuthenticated(alice))
	require.False(t, w.IsAuthenticated(bob))
	require.False(t, w.IsAuthenticated(Address{}))

	require.False(t, Witness{}.IsAuthenticated(alice))
}
