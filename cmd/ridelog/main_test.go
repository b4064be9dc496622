package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRange_Empty_YieldsZeroRange(t *testing.T) {
	tr, err := parseRange("", "")
	require.NoError(t, err)
	require.False(t, tr.IsSet())
}

func TestParseRange_FromOnly_ExtendsToNow(t *testing.T) {
	tr, err := parseRange("2024-12-01", "")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.Local), tr.After)
	require.WithinDuration(t, time.Now(), tr.Before, time.Minute)
}

func TestParseRange_ToDateIsInclusive(t *testing.T) {
	tr, err := parseRange("2024-12-01", "2024-12-31")
	require.NoError(t, err)
	require.True(t, tr.Contains(time.Date(2024, 12, 31, 23, 0, 0, 0, time.Local)))
	require.False(t, tr.Contains(time.Date(2025, 1, 1, 0, 30, 0, 0, time.Local)))
}

func TestParseRange_InvalidDate_ReturnsError(t *testing.T) {
	_, err := parseRange("01.12.2024", "")
	require.Error(t, err)

	_, err = parseRange("", "soon")
	require.Error(t, err)
}
