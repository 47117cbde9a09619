package ports

import "context"

// ViewFactory creates native views for script-driven UI surfaces. The core
// never calls into view factories; it only collects them for the UI
// collaborator.
type ViewFactory interface {
	Name() string
}

// Package contributes capability modules and script-module declarations to
// a session. A package is immutable once handed to the session manager; its
// create methods are called once per session build, on the Host context.
type Package interface {
	Name() string

	// CreateCapabilityModules returns the native modules this package
	// exposes to script. May return nil.
	CreateCapabilityModules(ctx context.Context) []Module

	// CreateScriptModuleDescriptors returns pointers to descriptor structs
	// declaring script-side modules the host may invoke. May return nil.
	CreateScriptModuleDescriptors() []any

	// CreateViewFactories returns view factories for the UI collaborator.
	// May return nil; the core only forwards these.
	CreateViewFactories(ctx context.Context) []ViewFactory
}
