// Package reflector resolves stable type names for runtime values. Names are
// derived once per type and cached, so hot paths (event serialization,
// dispatch lookup) do not pay for reflection repeatedly.
package reflector

import (
	"reflect"
	"sync"
)

type TypeInfo struct {
	// Name is the bare type name without package path, e.g. "OrderPlaced".
	Name string
	Type reflect.Type
}

var (
	mu    sync.RWMutex
	cache = map[reflect.Type]TypeInfo{}
)

// TypeInfoOf returns the TypeInfo for the dynamic type of x.
// Pointer types resolve to their element type.
func TypeInfoOf(x any) TypeInfo {
	return typeInfo(reflect.TypeOf(x))
}

// TypeInfoFor returns the TypeInfo for T without needing a value.
func TypeInfoFor[T any]() TypeInfo {
	return typeInfo(reflect.TypeOf((*T)(nil)).Elem())
}

func typeInfo(t reflect.Type) TypeInfo {
	if t == nil {
		return TypeInfo{}
	}

	mu.RLock()
	ti, ok := cache[t]
	mu.RUnlock()
	if ok {
		return ti
	}

	e := t
	for e.Kind() == reflect.Pointer {
		e = e.Elem()
	}
	ti = TypeInfo{Name: e.Name(), Type: e}

	mu.Lock()
	cache[t] = ti
	mu.Unlock()
	return ti
}
