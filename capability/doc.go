// Package capability builds and owns the set of native modules exposed to
// script. Modules register under unique names; the registry assigns each a
// stable zero-based id in registration order and binds every exported
// method to a wire method id. The id space freezes at build time and is
// part of the wire contract with the bridge.
//
// A bound method may have one of these shapes (receiver omitted):
//
//	func(args...)
//	func(args...) error
//	func(ctx context.Context, args...)
//	func(ctx context.Context, args...) error
//
// where args use JSON-compatible kinds (string, bool, int, int64, float64,
// map[string]any, []any, any) plus an optional trailing ports.Callback.
// Methods named Name, Initialize, OnSessionDispose or OnBatchComplete are
// lifecycle entry points, not wire methods.
package capability
