package scriptmodule_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostbridge-dev/hostbridge/domain/entities"
	"github.com/hostbridge-dev/hostbridge/scriptmodule"
)

// recordingDispatcher captures proxied calls.
type recordingDispatcher struct {
	mu    sync.Mutex
	calls []entities.Call
}

func (d *recordingDispatcher) CallFunction(moduleID, methodID int, args []any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, entities.Call{ModuleID: moduleID, MethodID: methodID, Args: args})
}

type Navigator struct {
	Push func(route string)
	Pop  func()
}

type Toaster struct {
	Show func(msg string, durationMs float64)
}

type unnamedField struct {
	hidden func()
}

type ReturnsValue struct {
	Get func() int
}

type NotFuncs struct {
	Count int
}

func TestNewGeneratesWorkingProxies(t *testing.T) {
	disp := &recordingDispatcher{}
	r := scriptmodule.New(disp, nil, &Navigator{}, &Toaster{})
	require.Equal(t, 2, r.Len())

	nav, ok := scriptmodule.Proxy[Navigator](r)
	require.True(t, ok)
	require.NotNil(t, nav.Push)
	require.NotNil(t, nav.Pop)

	nav.Push("/home")
	nav.Pop()

	toast, ok := scriptmodule.Proxy[Toaster](r)
	require.True(t, ok)
	toast.Show("hi", 1500)

	require.Len(t, disp.calls, 3)
	assert.Equal(t, entities.Call{ModuleID: 0, MethodID: 0, Args: []any{"/home"}}, disp.calls[0])
	assert.Equal(t, entities.Call{ModuleID: 0, MethodID: 1, Args: []any{}}, disp.calls[1])
	assert.Equal(t, entities.Call{ModuleID: 1, MethodID: 0, Args: []any{"hi", float64(1500)}}, disp.calls[2])
}

func TestDescribeFollowsFieldDeclarationOrder(t *testing.T) {
	r := scriptmodule.New(&recordingDispatcher{}, nil, &Navigator{})

	desc := r.Describe()
	require.Len(t, desc, 1)
	assert.Equal(t, 0, desc[0].ID)
	assert.Equal(t, "Navigator", desc[0].Name)
	assert.Equal(t, []entities.MethodDescriptor{
		{ID: 0, Name: "Push"},
		{ID: 1, Name: "Pop"},
	}, desc[0].Methods)
}

func TestNewDropsInvalidDescriptorsNonFatally(t *testing.T) {
	disp := &recordingDispatcher{}
	r := scriptmodule.New(disp, nil,
		nil,               // not a pointer
		Navigator{},       // not a pointer
		(*Navigator)(nil), // nil pointer
		&unnamedField{},   // unexported field
		&ReturnsValue{},   // method with return value
		&NotFuncs{},       // non-func field
		&Toaster{},        // valid
	)

	// Only the valid descriptor survives, with id 0.
	require.Equal(t, 1, r.Len())
	toast, ok := scriptmodule.Proxy[Toaster](r)
	require.True(t, ok)
	toast.Show("still works", 100)
	require.Len(t, disp.calls, 1)
	assert.Equal(t, 0, disp.calls[0].ModuleID)
}

func TestNewDropsDuplicateDescriptors(t *testing.T) {
	first := &Navigator{}
	second := &Navigator{}
	r := scriptmodule.New(&recordingDispatcher{}, nil, first, second)

	require.Equal(t, 1, r.Len())
	nav, ok := scriptmodule.Proxy[Navigator](r)
	require.True(t, ok)
	assert.Same(t, first, nav)
	assert.Nil(t, second.Push, "dropped duplicate must not be bound")
}

func TestProxyMissingType(t *testing.T) {
	r := scriptmodule.New(&recordingDispatcher{}, nil)
	_, ok := scriptmodule.Proxy[Navigator](r)
	assert.False(t, ok)
}

func TestModuleLookupByName(t *testing.T) {
	nav := &Navigator{}
	r := scriptmodule.New(&recordingDispatcher{}, nil, nav)

	got, ok := r.Module("Navigator")
	require.True(t, ok)
	assert.Same(t, nav, got.(*Navigator))

	_, ok = r.Module("missing")
	assert.False(t, ok)
}
