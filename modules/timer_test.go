package modules

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetTimeoutFires(t *testing.T) {
	m := NewTimerModule(nil)
	fired := make(chan struct{})
	m.SetTimeout(1, func(...any) { close(fired) })

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timer never fired")
	}
}

func TestDisposeStopsPendingTimers(t *testing.T) {
	m := NewTimerModule(nil)
	var fired atomic.Bool
	m.SetTimeout(50, func(...any) { fired.Store(true) })

	m.OnSessionDispose(context.Background())
	time.Sleep(150 * time.Millisecond)
	assert.False(t, fired.Load(), "disposed sessions must not receive timer callbacks")
}

func TestSetTimeoutAfterDisposeIsDropped(t *testing.T) {
	m := NewTimerModule(nil)
	m.OnSessionDispose(context.Background())

	var fired atomic.Bool
	m.SetTimeout(1, func(...any) { fired.Store(true) })
	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestSetTimeoutWithoutCallback(t *testing.T) {
	m := NewTimerModule(nil)
	m.SetTimeout(1, nil) // dropped, must not panic
}

func TestPackageContributesNetAndTimer(t *testing.T) {
	p := NewPackage(nil)
	assert.Equal(t, "builtin-modules", p.Name())

	mods := p.CreateCapabilityModules(context.Background())
	require.Len(t, mods, 2)
	assert.Equal(t, "Net", mods[0].Name())
	assert.Equal(t, "Timer", mods[1].Name())
	assert.Nil(t, p.CreateScriptModuleDescriptors())
	assert.Nil(t, p.CreateViewFactories(context.Background()))
}
