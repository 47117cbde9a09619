// Package bundle provides the concrete bundle loaders: local files, inline
// source and HTTP fetch from a development server. Loaders separate the
// asynchronous acquisition of script source (InitializeAsync) from its
// synchronous injection into the runtime (LoadScript), which the session
// performs on the Script context only after the module configuration
// document is installed.
package bundle

import (
	"context"
	"fmt"
	"os"

	"github.com/hostbridge-dev/hostbridge/domain/ports"
)

// FileLoader reads bundle source from local storage.
type FileLoader struct {
	path   string
	source []byte
}

// NewFileLoader creates a loader for a bundle file on disk.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// InitializeAsync reads the bundle file into memory.
func (l *FileLoader) InitializeAsync(_ context.Context) error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("failed to read bundle %q: %w", l.path, err)
	}
	l.source = data
	return nil
}

// LoadScript injects the previously read source into the runtime.
func (l *FileLoader) LoadScript(_ context.Context, rt ports.ScriptRuntime) error {
	if l.source == nil {
		return fmt.Errorf("bundle %q was not initialized before load", l.path)
	}
	return rt.LoadBundle(l.source, l.path)
}

// SourceName identifies the bundle in diagnostics.
func (l *FileLoader) SourceName() string { return l.path }

// SourceLoader serves an in-memory bundle. Used by tests and embedded
// applications that ship their bundle inside the binary.
type SourceLoader struct {
	name   string
	source []byte
}

// NewSourceLoader creates a loader around literal bundle source.
func NewSourceLoader(name string, source []byte) *SourceLoader {
	return &SourceLoader{name: name, source: source}
}

func (l *SourceLoader) InitializeAsync(_ context.Context) error { return nil }

func (l *SourceLoader) LoadScript(_ context.Context, rt ports.ScriptRuntime) error {
	return rt.LoadBundle(l.source, l.name)
}

func (l *SourceLoader) SourceName() string { return l.name }
