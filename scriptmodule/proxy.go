package scriptmodule

import (
	"fmt"
	"reflect"

	"github.com/hostbridge-dev/hostbridge/domain/ports"
)

// validate applies the "valid script module" predicate: a descriptor must
// be a non-nil pointer to a struct whose exported fields are all func
// fields without return values. It returns the module name (the struct
// type name) and the field indices that become methods.
func validate(desc any) (string, []int, error) {
	v := reflect.ValueOf(desc)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() {
		return "", nil, fmt.Errorf("descriptor must be a non-nil struct pointer")
	}
	t := v.Elem().Type()
	if t.Kind() != reflect.Struct {
		return "", nil, fmt.Errorf("descriptor must point to a struct, got %s", t.Kind())
	}
	if t.Name() == "" {
		return "", nil, fmt.Errorf("descriptor struct must be a named type")
	}
	var fields []int
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			return "", nil, fmt.Errorf("field %q is not exported", f.Name)
		}
		if f.Type.Kind() != reflect.Func {
			return "", nil, fmt.Errorf("field %q is not a func", f.Name)
		}
		if f.Type.NumOut() != 0 {
			return "", nil, fmt.Errorf("method %q must not return values", f.Name)
		}
		fields = append(fields, i)
	}
	return t.Name(), fields, nil
}

// bind fills each descriptor field with a proxy func that forwards the call
// to the dispatcher. Method ids follow field declaration order, matching
// the registry's Describe output.
func bind(d ports.Dispatcher, moduleID int, desc any, fields []int) {
	v := reflect.ValueOf(desc).Elem()
	for methodID, fieldIdx := range fields {
		field := v.Field(fieldIdx)
		mid := methodID
		field.Set(reflect.MakeFunc(field.Type(), func(in []reflect.Value) []reflect.Value {
			args := make([]any, len(in))
			for i, a := range in {
				args[i] = a.Interface()
			}
			d.CallFunction(moduleID, mid, args)
			return nil
		}))
	}
}
