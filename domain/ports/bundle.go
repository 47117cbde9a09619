package ports

import "context"

// BundleLoader abstracts how script source is obtained and injected into
// the runtime.
//
// InitializeAsync performs any asynchronous preparation (reading a file,
// fetching from a development server) and must complete before script
// injection. LoadScript performs the synchronous injection; it runs on the
// Script context, strictly after the module configuration document has been
// installed, so bundle code may reference module ids from that document at
// load time.
type BundleLoader interface {
	InitializeAsync(ctx context.Context) error
	LoadScript(ctx context.Context, rt ScriptRuntime) error
	SourceName() string
}
