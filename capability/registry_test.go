package capability_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostbridge-dev/hostbridge/capability"
	"github.com/hostbridge-dev/hostbridge/domain/entities"
	derrors "github.com/hostbridge-dev/hostbridge/domain/errors"
	"github.com/hostbridge-dev/hostbridge/domain/ports"
)

// calcModule exercises argument coercion, callbacks and error returns.
type calcModule struct {
	mu  sync.Mutex
	log []string
}

func (m *calcModule) Name() string { return "calc" }

func (m *calcModule) Add(a, b float64, cb ports.Callback) {
	m.record("add")
	cb(a + b)
}

func (m *calcModule) Divide(a, b int64) error {
	m.record("divide")
	if b == 0 {
		return errors.New("division by zero")
	}
	return nil
}

func (m *calcModule) Echo(ctx context.Context, msg string, extra map[string]any) {
	m.record(fmt.Sprintf("echo:%s", msg))
}

func (m *calcModule) record(s string) {
	m.mu.Lock()
	m.log = append(m.log, s)
	m.mu.Unlock()
}

func (m *calcModule) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.log...)
}

// panickyModule panics on invocation.
type panickyModule struct{}

func (panickyModule) Name() string { return "panicky" }
func (panickyModule) Boom()        { panic("kaboom") }

// lifecycleModule records lifecycle notifications into a shared journal.
type lifecycleModule struct {
	name    string
	journal *[]string
}

func (m *lifecycleModule) Name() string { return m.name }

func (m *lifecycleModule) Initialize(context.Context) {
	*m.journal = append(*m.journal, m.name+":init")
}

func (m *lifecycleModule) OnSessionDispose(context.Context) {
	*m.journal = append(*m.journal, m.name+":dispose")
}

func (m *lifecycleModule) OnBatchComplete(context.Context) {
	*m.journal = append(*m.journal, m.name+":batch")
}

// badModule has a method signature that cannot be described on the wire.
type badModule struct{}

func (badModule) Name() string     { return "bad" }
func (badModule) Send(ch chan int) {}

// recordingInvoker captures callback invocations.
type recordingInvoker struct {
	mu   sync.Mutex
	ids  []int
	args [][]any
}

func (r *recordingInvoker) InvokeCallback(id int, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	r.args = append(r.args, args)
}

func intPtr(n int) *int { return &n }

func TestNewAssignsIDsInRegistrationOrder(t *testing.T) {
	journal := []string{}
	r, err := capability.New(capability.WithModules(
		&calcModule{},
		&lifecycleModule{name: "first", journal: &journal},
		&lifecycleModule{name: "second", journal: &journal},
	))
	require.NoError(t, err)
	require.Equal(t, 3, r.Len())

	desc := r.Describe()
	require.Len(t, desc, 3)
	assert.Equal(t, 0, desc[0].ID)
	assert.Equal(t, "calc", desc[0].Name)
	assert.Equal(t, 1, desc[1].ID)
	assert.Equal(t, "first", desc[1].Name)
	assert.Equal(t, 2, desc[2].ID)
	assert.Equal(t, "second", desc[2].Name)

	// Method ids follow reflect's deterministic (lexicographic) order and
	// exclude the reserved lifecycle names.
	require.Len(t, desc[0].Methods, 3)
	assert.Equal(t, entities.MethodDescriptor{ID: 0, Name: "Add"}, desc[0].Methods[0])
	assert.Equal(t, entities.MethodDescriptor{ID: 1, Name: "Divide"}, desc[0].Methods[1])
	assert.Equal(t, entities.MethodDescriptor{ID: 2, Name: "Echo"}, desc[0].Methods[2])
}

func TestNewEmptyRegistryIsLegal(t *testing.T) {
	r, err := capability.New()
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Describe())
}

func TestNewRejectsDuplicateNames(t *testing.T) {
	_, err := capability.New(capability.WithModules(&calcModule{}, &calcModule{}))
	var cfgErr *derrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "duplicate module name")
}

func TestNewRejectsNilAndUnnamedModules(t *testing.T) {
	_, err := capability.New(capability.WithModule(nil))
	var cfgErr *derrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = capability.New(capability.WithModule(&lifecycleModule{name: ""}))
	assert.ErrorAs(t, err, &cfgErr)
}

func TestNewRejectsUndescribableMethod(t *testing.T) {
	_, err := capability.New(capability.WithModule(badModule{}))
	var cfgErr *derrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "unsupported parameter type")
}

func TestInvokeCoercesArgumentsAndRoutesCallback(t *testing.T) {
	mod := &calcModule{}
	r, err := capability.New(capability.WithModule(mod))
	require.NoError(t, err)

	inv := &recordingInvoker{}
	// Numbers arrive as float64 from JSON-shaped transports.
	err = r.Invoke(context.Background(), entities.Call{
		ModuleID:   0,
		MethodID:   0, // Add
		Args:       []any{float64(2), float64(3)},
		CallbackID: intPtr(7),
	}, inv)
	require.NoError(t, err)

	require.Len(t, inv.ids, 1)
	assert.Equal(t, 7, inv.ids[0])
	assert.Equal(t, []any{float64(5)}, inv.args[0])
	assert.Equal(t, []string{"add"}, mod.calls())
}

func TestInvokeCoercesFloatToInt(t *testing.T) {
	mod := &calcModule{}
	r, err := capability.New(capability.WithModule(mod))
	require.NoError(t, err)

	err = r.Invoke(context.Background(), entities.Call{
		ModuleID: 0,
		MethodID: 1, // Divide
		Args:     []any{float64(10), float64(2)},
	}, nil)
	require.NoError(t, err)
}

func TestInvokeUnknownIDsAreProtocolErrors(t *testing.T) {
	r, err := capability.New(capability.WithModule(&calcModule{}))
	require.NoError(t, err)

	tests := []struct {
		name string
		call entities.Call
	}{
		{"unknown module", entities.Call{ModuleID: 9, MethodID: 0}},
		{"negative module", entities.Call{ModuleID: -1, MethodID: 0}},
		{"unknown method", entities.Call{ModuleID: 0, MethodID: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Invoke(context.Background(), tt.call, nil)
			var pErr *derrors.ProtocolError
			assert.ErrorAs(t, err, &pErr)
		})
	}
}

func TestInvokeArgCountMismatchIsProtocolError(t *testing.T) {
	r, err := capability.New(capability.WithModule(&calcModule{}))
	require.NoError(t, err)

	err = r.Invoke(context.Background(), entities.Call{
		ModuleID: 0,
		MethodID: 1, // Divide wants two args
		Args:     []any{float64(1)},
	}, nil)
	var pErr *derrors.ProtocolError
	require.ErrorAs(t, err, &pErr)
	assert.Contains(t, pErr.Detail, "expects 2 args")
}

func TestInvokeWrapsModuleErrorsAsCapabilityFaults(t *testing.T) {
	r, err := capability.New(capability.WithModule(&calcModule{}))
	require.NoError(t, err)

	err = r.Invoke(context.Background(), entities.Call{
		ModuleID: 0,
		MethodID: 1, // Divide
		Args:     []any{float64(1), float64(0)},
	}, nil)
	var fault *derrors.CapabilityFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "calc", fault.Module)
	assert.Equal(t, "Divide", fault.Method)
	assert.False(t, fault.Panicked)
	assert.EqualError(t, fault.Err, "division by zero")
}

func TestInvokeRecoversPanicsAsCapabilityFaults(t *testing.T) {
	r, err := capability.New(capability.WithModule(panickyModule{}))
	require.NoError(t, err)

	err = r.Invoke(context.Background(), entities.Call{ModuleID: 0, MethodID: 0}, nil)
	var fault *derrors.CapabilityFault
	require.ErrorAs(t, err, &fault)
	assert.True(t, fault.Panicked)
	assert.Contains(t, fault.Err.Error(), "kaboom")
}

func TestLifecycleNotificationsFollowRegistrationOrder(t *testing.T) {
	journal := []string{}
	r, err := capability.New(capability.WithModules(
		&lifecycleModule{name: "a", journal: &journal},
		&calcModule{}, // implements no lifecycle interfaces, must be skipped
		&lifecycleModule{name: "b", journal: &journal},
	))
	require.NoError(t, err)

	ctx := context.Background()
	r.NotifyInitialize(ctx)
	r.NotifyBatchComplete(ctx)
	r.NotifyDispose(ctx)

	assert.Equal(t, []string{
		"a:init", "b:init",
		"a:batch", "b:batch",
		"a:dispose", "b:dispose",
	}, journal)
}

func TestMiddlewareWrapsInFIFOOrder(t *testing.T) {
	var order []string
	mw := func(tag string) capability.Middleware {
		return func(next capability.InvokeFunc) capability.InvokeFunc {
			return func(ctx context.Context, call entities.Call, inv ports.CallbackInvoker) error {
				order = append(order, tag+":before")
				err := next(ctx, call, inv)
				order = append(order, tag+":after")
				return err
			}
		}
	}

	r, err := capability.New(
		capability.WithModule(&calcModule{}),
		capability.WithMiddleware(mw("outer"), mw("inner")),
	)
	require.NoError(t, err)

	err = r.Invoke(context.Background(), entities.Call{
		ModuleID: 0,
		MethodID: 1,
		Args:     []any{float64(4), float64(2)},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer:before", "inner:before", "inner:after", "outer:after"}, order)
}

func TestModuleLookupByName(t *testing.T) {
	mod := &calcModule{}
	r, err := capability.New(capability.WithModule(mod))
	require.NoError(t, err)

	got, ok := r.Module("calc")
	require.True(t, ok)
	assert.Same(t, ports.Module(mod), got)

	_, ok = r.Module("missing")
	assert.False(t, ok)
}
