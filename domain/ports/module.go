package ports

import "context"

// Module is a native capability module exposed to script. Beyond Name, any
// exported method of the concrete type becomes an invocable wire method
// (see the capability package for the supported signatures). A module is
// owned exclusively by its registry after registration.
type Module interface {
	Name() string
}

// Initializer is implemented by modules that want a notification once the
// session transitions to Initialized. Notifications are delivered on the
// Capability context in registration order.
type Initializer interface {
	Initialize(ctx context.Context)
}

// Disposer is implemented by modules that want a notification when the
// owning session is being disposed. Delivered on the Capability context in
// registration order.
type Disposer interface {
	OnSessionDispose(ctx context.Context)
}

// BatchListener is implemented by modules that want a notification after
// each inbound call batch finishes executing. Delivered on the Capability
// context in registration order.
type BatchListener interface {
	OnBatchComplete(ctx context.Context)
}
