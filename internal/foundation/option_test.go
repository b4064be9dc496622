package foundation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOption_Some_IsPresent(t *testing.T) {
	o := Some(42)
	require.True(t, o.IsSome())
	require.False(t, o.IsNone())
	require.Equal(t, 42, o.Unwrap())
}

func TestOption_None_IsAbsent(t *testing.T) {
	o := None[string]()
	require.True(t, o.IsNone())
	require.Equal(t, "fallback", o.UnwrapOr("fallback"))
}

func TestOption_Unwrap_PanicsOnNone(t *testing.T) {
	require.Panics(t, func() { None[int]().Unwrap() })
}

func TestOption_PointerRoundTrip(t *testing.T) {
	v := "hello"
	o := FromPointer(&v)
	require.True(t, o.IsSome())
	require.Equal(t, "hello", *o.ToPointer())

	require.Nil(t, None[string]().ToPointer())
	require.True(t, FromPointer[string](nil).IsNone())
}
