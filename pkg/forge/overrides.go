package forge

import (
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Overrides is a partial value shallow-merged over blueprint output. Keys are
// struct field names (json tag first, then Go name) or map keys.
//
// An absent key leaves the field alone. A nil value sets the field to nil and is
// only accepted for nilable types. Undefined resets a struct field to its zero
// value and removes a map key. Nested values are replaced, never deep-merged.
type Overrides map[string]any

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is the override value that clears a field instead of nulling it.
var Undefined any = undefined{}

// BatchOverrides selects the overrides applied to the i-th element of a batch.
// Overrides applies the same value to every element; Each applies by index.
type BatchOverrides interface {
	overridesAt(i int) Overrides
}

func (o Overrides) overridesAt(int) Overrides { return o }

// Each holds per-index overrides for a batch. Entries past the end of the
// slice apply no override.
type Each []Overrides

func (e Each) overridesAt(i int) Overrides {
	if i < len(e) {
		return e[i]
	}
	return nil
}

func mergeOverrides(list []Overrides) Overrides {
	out := make(Overrides)
	for _, o := range list {
		maps.Copy(out, o)
	}
	return out
}

func batchOverridesAt(list []BatchOverrides, i int) Overrides {
	out := make(Overrides)
	for _, o := range list {
		if o != nil {
			maps.Copy(out, o.overridesAt(i))
		}
	}
	return out
}

// applyOverrides returns v with o merged over it. Unknown struct fields fail.
func applyOverrides[T any](v T, o Overrides) (T, error) {
	if len(o) == 0 {
		return v, nil
	}
	out, err := mergeValue(reflect.ValueOf(&v).Elem(), o, true)
	if err != nil {
		return v, err
	}
	return out.Interface().(T), nil
}

// decodeFields builds a fresh U from a field map, ignoring keys U does not have.
func decodeFields[U any](fields Overrides) (U, error) {
	var u U
	rv := reflect.ValueOf(&u).Elem()
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.Type().Elem().Kind() == reflect.Struct {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
	case reflect.Map:
		rv.Set(reflect.MakeMap(rv.Type()))
	case reflect.Interface:
		rv.Set(reflect.ValueOf(map[string]any{}))
	}
	out, err := mergeValue(rv, fields, false)
	if err != nil {
		return u, err
	}
	return out.Interface().(U), nil
}

func mergeValue(rv reflect.Value, o Overrides, strict bool) (reflect.Value, error) {
	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return rv, validationError("cannot apply overrides to a nil result", nil)
		}
		return mergeValue(rv.Elem(), o, strict)

	case reflect.Pointer:
		if rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return rv, validationError("overrides require a struct or map result",
				map[string]any{"type": rv.Type().String()})
		}
		cp := reflect.New(rv.Elem().Type())
		cp.Elem().Set(rv.Elem())
		if err := setFields(cp.Elem(), o, strict); err != nil {
			return rv, err
		}
		return cp, nil

	case reflect.Struct:
		cp := reflect.New(rv.Type()).Elem()
		cp.Set(rv)
		if err := setFields(cp, o, strict); err != nil {
			return rv, err
		}
		return cp, nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return rv, validationError("overrides require string map keys",
				map[string]any{"type": rv.Type().String()})
		}
		cp := reflect.MakeMapWithSize(rv.Type(), rv.Len()+len(o))
		iter := rv.MapRange()
		for iter.Next() {
			cp.SetMapIndex(iter.Key(), iter.Value())
		}
		for _, k := range slices.Sorted(maps.Keys(o)) {
			key := reflect.ValueOf(k).Convert(rv.Type().Key())
			if o[k] == Undefined {
				cp.SetMapIndex(key, reflect.Value{})
				continue
			}
			x, err := convertValue(o[k], rv.Type().Elem(), k)
			if err != nil {
				return rv, err
			}
			cp.SetMapIndex(key, x)
		}
		return cp, nil
	}

	return rv, validationError("overrides require a struct or map result",
		map[string]any{"type": rv.Type().String()})
}

func setFields(sv reflect.Value, o Overrides, strict bool) error {
	index := fieldIndex(sv.Type())
	for _, k := range slices.Sorted(maps.Keys(o)) {
		i, ok := index[k]
		if !ok {
			if strict {
				return validationError(fmt.Sprintf("unknown override field %q", k),
					map[string]any{"type": sv.Type().String()})
			}
			continue
		}
		f := sv.Field(i)
		x, err := convertValue(o[k], f.Type(), k)
		if err != nil {
			return err
		}
		f.Set(x)
	}
	return nil
}

func convertValue(val any, typ reflect.Type, key string) (reflect.Value, error) {
	if val == Undefined {
		return reflect.Zero(typ), nil
	}
	if val == nil {
		if nilable(typ.Kind()) {
			return reflect.Zero(typ), nil
		}
		return reflect.Value{}, validationError(
			fmt.Sprintf("cannot assign nil to %q of type %s", key, typ), nil)
	}

	x := reflect.ValueOf(val)
	switch {
	case x.Type().AssignableTo(typ):
		return x, nil
	case typ.Kind() == reflect.Pointer && x.Type().AssignableTo(typ.Elem()):
		p := reflect.New(typ.Elem())
		p.Elem().Set(x)
		return p, nil
	case numeric(x.Kind()) && numeric(typ.Kind()):
		if !fits(x, typ) {
			return reflect.Value{}, validationError(
				fmt.Sprintf("override %q value %v does not fit %s", key, val, typ), nil)
		}
		return x.Convert(typ), nil
	case x.Kind() == reflect.String && typ.Kind() == reflect.String:
		return x.Convert(typ), nil
	}
	return reflect.Value{}, validationError(
		fmt.Sprintf("override %q has type %s, want %s", key, x.Type(), typ), nil)
}

// toFields flattens a struct or string-keyed map into a field map.
func toFields(v any) (Overrides, error) {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		rv = rv.Elem()
	}
	out := make(Overrides)
	if !rv.IsValid() {
		return out, nil
	}

	switch rv.Kind() {
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			out[fieldName(sf)] = rv.Field(i).Interface()
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			iter := rv.MapRange()
			for iter.Next() {
				out[iter.Key().String()] = iter.Value().Interface()
			}
			return out, nil
		}
	}
	return nil, validationError("compose requires a struct or map result",
		map[string]any{"type": rv.Type().String()})
}

var fieldIndexCache sync.Map // reflect.Type -> map[string]int

func fieldIndex(t reflect.Type) map[string]int {
	if cached, ok := fieldIndexCache.Load(t); ok {
		return cached.(map[string]int)
	}
	index := make(map[string]int, t.NumField()*2)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		index[fieldName(sf)] = i
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if _, taken := index[sf.Name]; sf.IsExported() && !taken {
			index[sf.Name] = i
		}
	}
	fieldIndexCache.Store(t, index)
	return index
}

func fieldName(sf reflect.StructField) string {
	if tag, ok := sf.Tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return sf.Name
}

func nilable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// fits reports whether the numeric x converts to typ without loss of range
// or of a fractional part.
func fits(x reflect.Value, typ reflect.Type) bool {
	out := reflect.New(typ).Elem()
	switch {
	case x.CanInt():
		n := x.Int()
		switch {
		case out.CanInt():
			return !out.OverflowInt(n)
		case out.CanUint():
			return n >= 0 && !out.OverflowUint(uint64(n))
		}
	case x.CanUint():
		u := x.Uint()
		switch {
		case out.CanInt():
			return u <= math.MaxInt64 && !out.OverflowInt(int64(u))
		case out.CanUint():
			return !out.OverflowUint(u)
		}
	case x.CanFloat():
		f := x.Float()
		if out.CanFloat() {
			return math.IsNaN(f) || math.IsInf(f, 0) || !out.OverflowFloat(f)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return false
		}
		switch {
		case out.CanInt():
			return f >= math.MinInt64 && f < math.MaxInt64 && !out.OverflowInt(int64(f))
		case out.CanUint():
			return f >= 0 && f < math.MaxUint64 && !out.OverflowUint(uint64(f))
		}
	}
	return true
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
