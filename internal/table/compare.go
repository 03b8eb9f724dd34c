package table

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"
	"time"
)

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch x := v.(type) {
	case string:
		return x == ""
	case *time.Time:
		return x == nil
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// compareValues orders two cell values of the same column. Strings compare
// case-insensitively; numbers of any width compare numerically.
func compareValues(a, b any) int {
	if at, ok := asTime(a); ok {
		if bt, ok := asTime(b); ok {
			return at.Compare(bt)
		}
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() == reflect.Pointer && !ra.IsNil() {
		ra = ra.Elem()
	}
	if rb.Kind() == reflect.Pointer && !rb.IsNil() {
		rb = rb.Elem()
	}

	if fa, ok := asFloat(ra); ok {
		if fb, ok := asFloat(rb); ok {
			return cmp.Compare(fa, fb)
		}
	}
	if ra.Kind() == reflect.Bool && rb.Kind() == reflect.Bool {
		switch {
		case ra.Bool() == rb.Bool():
			return 0
		case !ra.Bool():
			return -1
		default:
			return 1
		}
	}
	if ra.Kind() == reflect.String && rb.Kind() == reflect.String {
		return strings.Compare(strings.ToLower(ra.String()), strings.ToLower(rb.String()))
	}
	return strings.Compare(strings.ToLower(fmt.Sprint(a)), strings.ToLower(fmt.Sprint(b)))
}

func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return *x, true
	}
	return time.Time{}, false
}

func asFloat(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}
