package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigErrorFormats(t *testing.T) {
	assert.EqualError(t, NewConfigError("build", "duplicate name %q", "x"),
		`config: build: duplicate name "x"`)

	cause := stderrors.New("boom")
	wrapped := WrapConfig("load", cause)
	assert.EqualError(t, wrapped, "config: load: boom")
	assert.ErrorIs(t, wrapped, cause)
}

func TestCapabilityFaultFormats(t *testing.T) {
	cause := stderrors.New("boom")
	fault := &CapabilityFault{Module: "Net", Method: "Fetch", Err: cause}
	assert.EqualError(t, fault, "capability fault: Net.Fetch: error: boom")
	assert.ErrorIs(t, fault, cause)

	fault.Panicked = true
	assert.Contains(t, fault.Error(), "panic")
}

func TestProtocolErrorFormat(t *testing.T) {
	err := &ProtocolError{ModuleID: 2, MethodID: 5, Detail: "unknown method id"}
	assert.EqualError(t, err, "protocol desync: module=2 method=5: unknown method id")
}

func TestIsDisposed(t *testing.T) {
	assert.True(t, IsDisposed(ErrDisposed))
	assert.True(t, IsDisposed(fmt.Errorf("dropping work: %w", ErrDisposed)))
	assert.False(t, IsDisposed(stderrors.New("other")))
	assert.False(t, IsDisposed(nil))
}
