package looper

import (
	"context"
	"log/slog"
)

// Set is the triad of execution contexts owned by one session: Host is the
// context the embedding application runs on, Script runs the embedded
// script runtime exclusively, Capability runs native capability module code
// exclusively.
//
// The Host looper outlives sessions; it belongs to the session manager and
// is only borrowed by a Set. Closing a Set stops Script and Capability and
// releases the Host reference.
type Set struct {
	Host       *Looper
	Script     *Looper
	Capability *Looper
}

// NewSet creates fresh Script and Capability contexts around the given Host
// context.
func NewSet(host *Looper, logger *slog.Logger) *Set {
	return &Set{
		Host:       host,
		Script:     New("script", logger),
		Capability: New("capability", logger),
	}
}

// Close stops the Script and Capability contexts and waits for their
// in-flight work to finish. The borrowed Host context keeps running.
func (s *Set) Close(ctx context.Context) {
	s.Script.Close(ctx)
	s.Capability.Close(ctx)
}
