package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRidelogError_FormatsWithAndWithoutCause(t *testing.T) {
	plain := New(CategoryConfig, "missing client id")
	require.Equal(t, "config: missing client id", plain.Error())

	wrapped := Wrap(fmt.Errorf("boom"), CategoryAPI, "list activities")
	require.Equal(t, "api: list activities: boom", wrapped.Error())
	require.EqualError(t, wrapped.Unwrap(), "boom")
}

func TestIsCategory(t *testing.T) {
	err := New(CategoryAuth, "token rejected")
	require.True(t, IsCategory(err, CategoryAuth))
	require.False(t, IsCategory(err, CategoryAPI))
	require.False(t, IsCategory(fmt.Errorf("plain"), CategoryAuth))
}

func TestExitCodeFor_MapsCategories(t *testing.T) {
	require.Equal(t, ExitOK, ExitCodeFor(nil))
	require.Equal(t, ExitGeneral, ExitCodeFor(fmt.Errorf("plain")))
	require.Equal(t, ExitAuth, ExitCodeFor(New(CategoryAuth, "x")))
	require.Equal(t, ExitExternal, ExitCodeFor(New(CategoryRateLimit, "x")))
	require.Equal(t, ExitConfig, ExitCodeFor(New(CategoryConfig, "x")))
	require.Equal(t, ExitProcessing, ExitCodeFor(New(CategoryRender, "x")))

	// Wrapped errors still classify.
	wrapped := fmt.Errorf("outer: %w", New(CategoryDaemon, "x"))
	require.Equal(t, ExitDaemon, ExitCodeFor(wrapped))
}
