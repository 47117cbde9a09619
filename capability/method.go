package capability

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hostbridge-dev/hostbridge/domain/entities"
	derrors "github.com/hostbridge-dev/hostbridge/domain/errors"
	"github.com/hostbridge-dev/hostbridge/domain/ports"
)

var (
	ctxType      = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType      = reflect.TypeOf((*error)(nil)).Elem()
	callbackType = reflect.TypeOf(ports.Callback(nil))
	anyType      = reflect.TypeOf((*any)(nil)).Elem()
)

// reservedMethods are lifecycle entry points, never exposed on the wire.
var reservedMethods = map[string]bool{
	"Name":             true,
	"Initialize":       true,
	"OnSessionDispose": true,
	"OnBatchComplete":  true,
}

// boundMethod is one invocable wire method of a capability module.
type boundMethod struct {
	name       string
	fn         reflect.Value
	params     []reflect.Type // wire params, excluding receiver/ctx/callback
	wantsCtx   bool
	wantsCb    bool
	returnsErr bool
}

// bindMethods reflects over the module's exported methods and produces the
// wire method table, sorted by name (reflect's method order), so ids are
// deterministic on both sides of the bridge.
func bindMethods(m ports.Module) ([]*boundMethod, error) {
	t := reflect.TypeOf(m)
	v := reflect.ValueOf(m)
	methods := make([]*boundMethod, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		mt := t.Method(i)
		if reservedMethods[mt.Name] {
			continue
		}
		bm, err := bindMethod(mt.Name, v.Method(i))
		if err != nil {
			return nil, derrors.WrapConfig("bind method",
				fmt.Errorf("module %q method %q: %w", m.Name(), mt.Name, err))
		}
		methods = append(methods, bm)
	}
	return methods, nil
}

func bindMethod(name string, fn reflect.Value) (*boundMethod, error) {
	ft := fn.Type()
	if ft.IsVariadic() {
		return nil, fmt.Errorf("variadic methods are not invocable")
	}
	bm := &boundMethod{name: name, fn: fn}

	switch ft.NumOut() {
	case 0:
	case 1:
		if !ft.Out(0).Implements(errType) {
			return nil, fmt.Errorf("return type %s is not error", ft.Out(0))
		}
		bm.returnsErr = true
	default:
		return nil, fmt.Errorf("at most one (error) return value is allowed")
	}

	start := 0
	if ft.NumIn() > 0 && ft.In(0) == ctxType {
		bm.wantsCtx = true
		start = 1
	}
	for i := start; i < ft.NumIn(); i++ {
		pt := ft.In(i)
		if pt == callbackType {
			if i != ft.NumIn()-1 {
				return nil, fmt.Errorf("callback parameter must be last")
			}
			bm.wantsCb = true
			continue
		}
		if !supportedParam(pt) {
			return nil, fmt.Errorf("unsupported parameter type %s", pt)
		}
		bm.params = append(bm.params, pt)
	}
	return bm, nil
}

func supportedParam(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String, reflect.Bool, reflect.Int, reflect.Int64, reflect.Float64:
		return true
	case reflect.Map:
		return t.Key().Kind() == reflect.String && t.Elem() == anyType
	case reflect.Slice:
		return t.Elem() == anyType
	case reflect.Interface:
		return t == anyType
	default:
		return false
	}
}

// invoke coerces the wire arguments and calls the bound method. Argument
// shape mismatches are protocol desynchronization, not capability faults.
func (bm *boundMethod) invoke(ctx context.Context, call entities.Call, cb ports.Callback) error {
	if len(call.Args) != len(bm.params) {
		return &derrors.ProtocolError{
			ModuleID: call.ModuleID,
			MethodID: call.MethodID,
			Detail:   fmt.Sprintf("method %q expects %d args, got %d", bm.name, len(bm.params), len(call.Args)),
		}
	}
	in := make([]reflect.Value, 0, len(bm.params)+2)
	if bm.wantsCtx {
		in = append(in, reflect.ValueOf(ctx))
	}
	for i, pt := range bm.params {
		v, err := coerceArg(call.Args[i], pt)
		if err != nil {
			return &derrors.ProtocolError{
				ModuleID: call.ModuleID,
				MethodID: call.MethodID,
				Detail:   fmt.Sprintf("method %q arg %d: %v", bm.name, i, err),
			}
		}
		in = append(in, v)
	}
	if bm.wantsCb {
		in = append(in, reflect.ValueOf(cb))
	}
	out := bm.fn.Call(in)
	if bm.returnsErr && !out[0].IsNil() {
		return out[0].Interface().(error)
	}
	return nil
}

// coerceArg converts a decoded wire value to the parameter type. Numbers
// arrive as float64 from JSON-shaped transports and as int/int64 from
// native ones; both are accepted for numeric parameters.
func coerceArg(v any, t reflect.Type) (reflect.Value, error) {
	if t == anyType {
		if v == nil {
			return reflect.Zero(anyType), nil
		}
		return reflect.ValueOf(v), nil
	}
	if v == nil {
		switch t.Kind() {
		case reflect.Map, reflect.Slice:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("nil is not assignable to %s", t)
	}
	switch t.Kind() {
	case reflect.String:
		if s, ok := v.(string); ok {
			return reflect.ValueOf(s), nil
		}
	case reflect.Bool:
		if b, ok := v.(bool); ok {
			return reflect.ValueOf(b), nil
		}
	case reflect.Int, reflect.Int64:
		if n, ok := toInt64(v); ok {
			return reflect.ValueOf(n).Convert(t), nil
		}
	case reflect.Float64:
		if f, ok := toFloat64(v); ok {
			return reflect.ValueOf(f), nil
		}
	case reflect.Map:
		if m, ok := v.(map[string]any); ok {
			return reflect.ValueOf(m), nil
		}
	case reflect.Slice:
		if s, ok := v.([]any); ok {
			return reflect.ValueOf(s), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("cannot convert %T to %s", v, t)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
