package flow

import "reflect"

// valueType returns the dynamic type of an any value, tolerating nil.
func valueType(v any) reflect.Type {
	if v == nil {
		return nil
	}
	return reflect.TypeOf(v)
}
