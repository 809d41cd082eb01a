package reactive

import "reflect"

// Equality strategies decide whether a freshly written or computed value
// differs from the previous one. A value that compares equal does not
// propagate: no dirtying, no recomputation downstream. The default strategy
// for every node is identity; Shallow, Deep, or a hand-written comparator
// can be installed per node via WithEquals.

// Identity returns the identity equality strategy for T.
// Comparable values compare by ==; slices, maps, functions, and channels
// compare by reference (same backing object); non-comparable structs and
// arrays never compare equal, so recomputed composite values always
// propagate. This is the package default.
func Identity[T any]() func(a, b T) bool {
	return identityEquals[T]
}

// Shallow returns a one-level structural comparison for T.
// Slices compare element-by-element with identity at depth one, maps compare
// key sets and values with identity, structs compare fields with identity,
// and pointers compare their pointees with identity. Everything else falls
// back to identity.
func Shallow[T any]() func(a, b T) bool {
	return func(a, b T) bool {
		return shallowEquals(reflect.ValueOf(a), reflect.ValueOf(b))
	}
}

// Deep returns full structural comparison via reflect.DeepEqual.
// Use for small composite values where propagation should stop whenever the
// contents are unchanged regardless of allocation identity.
func Deep[T any]() func(a, b T) bool {
	return func(a, b T) bool {
		return reflect.DeepEqual(a, b)
	}
}

// identityEquals is the default strategy. The primitive switch avoids
// reflection on the overwhelmingly common cases.
func identityEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return identityValueEquals(reflect.ValueOf(a), reflect.ValueOf(b))
	}
}

// identityValueEquals implements identity for the reflective cases.
func identityValueEquals(va, vb reflect.Value) bool {
	if !va.IsValid() || !vb.IsValid() {
		// Both nil interfaces are identical; nil vs non-nil is not.
		return va.IsValid() == vb.IsValid()
	}
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Slice:
		// Same view of the same backing array.
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		return va.UnsafePointer() == vb.UnsafePointer() && va.Len() == vb.Len()
	case reflect.Map, reflect.Func, reflect.Chan:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		return va.UnsafePointer() == vb.UnsafePointer()
	default:
		if va.Comparable() && vb.Comparable() {
			return va.Equal(vb)
		}
		// Non-comparable composites (structs or arrays containing slices)
		// have no identity; treat every new value as changed.
		return false
	}
}

// shallowEquals compares one structural level, with identity at the leaves.
func shallowEquals(va, vb reflect.Value) bool {
	if !va.IsValid() || !vb.IsValid() {
		return va.IsValid() == vb.IsValid()
	}
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Slice, reflect.Array:
		if va.Kind() == reflect.Slice && (va.IsNil() != vb.IsNil()) {
			return false
		}
		if va.Len() != vb.Len() {
			return false
		}
		for i := 0; i < va.Len(); i++ {
			if !identityValueEquals(va.Index(i), vb.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Map:
		if va.IsNil() != vb.IsNil() {
			return false
		}
		if va.Len() != vb.Len() {
			return false
		}
		iter := va.MapRange()
		for iter.Next() {
			other := vb.MapIndex(iter.Key())
			if !other.IsValid() || !identityValueEquals(iter.Value(), other) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < va.NumField(); i++ {
			if !identityValueEquals(va.Field(i), vb.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Pointer:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		return identityValueEquals(va.Elem(), vb.Elem())
	case reflect.Interface:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		return identityValueEquals(va.Elem(), vb.Elem())
	default:
		return identityValueEquals(va, vb)
	}
}
