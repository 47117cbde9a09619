// Package testutil provides common test utilities shared by bridge and
// session tests.
package testutil

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hostbridge-dev/hostbridge/looper"
)

// Drain runs an empty work item through each looper in order, repeating the
// round the given number of times. Because each looper is FIFO, a round
// acts as a barrier: work posted before the round started has executed once
// Drain returns. Cascaded hops (script -> capability -> script) need one
// round per hop.
func Drain(t *testing.T, rounds int, loopers ...*looper.Looper) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < rounds; i++ {
		for _, l := range loopers {
			err := l.RunSync(ctx, func(context.Context) error { return nil })
			require.NoError(t, err)
		}
	}
}

// AssertJSONEqual compares two JSON strings for equality, ignoring
// formatting.
func AssertJSONEqual(t *testing.T, expected, actual string) {
	t.Helper()
	var want, got any
	require.NoError(t, json.Unmarshal([]byte(expected), &want), "expected JSON is invalid")
	require.NoError(t, json.Unmarshal([]byte(actual), &got), "actual JSON is invalid")
	require.Equal(t, want, got)
}
