package logfields

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestHelperKeyNames verifies helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
	}{
		{"RunID", KeyRunID, "abc"},
		{"Channel", KeyChannel, "kml"},
		{"Output", KeyOutput, "/tmp/rides.kml"},
		{"Path", KeyPath, "/tmp/config.yaml"},
		{"Addr", KeyAddr, "127.0.0.1:9416"},
	}
	require.Equal(t, cases[0].attrKey, RunID(cases[0].attrVal).Key)
	require.Equal(t, cases[0].attrVal, RunID(cases[0].attrVal).Value.String())
	require.Equal(t, cases[1].attrKey, Channel(cases[1].attrVal).Key)
	require.Equal(t, cases[1].attrVal, Channel(cases[1].attrVal).Value.String())
	require.Equal(t, cases[2].attrKey, Output(cases[2].attrVal).Key)
	require.Equal(t, cases[3].attrKey, Path(cases[3].attrVal).Key)
	require.Equal(t, cases[4].attrKey, Addr(cases[4].attrVal).Key)
}

func TestActivitiesIsInt(t *testing.T) {
	attr := Activities(7)
	require.Equal(t, KeyActivities, attr.Key)
	require.Equal(t, int64(7), attr.Value.Int64())
}

func TestErrorHandlesNil(t *testing.T) {
	require.Equal(t, "", Error(nil).Value.String())
	require.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}
