// File: lixenwraith/layered/type.go
package layered

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// String retrieves a string value for key.
// Attempts conversion from common types if the stored value isn't already a string.
func (r *Resolver) String(key any, opts ...ReadOptions) (string, error) {
	val, err := r.Get(key, opts...)
	if err != nil {
		return "", fmt.Errorf("key %v: %w", key, err)
	}
	if val == nil {
		return "", nil // Treat nil as empty string for convenience
	}

	if strVal, ok := val.(string); ok {
		return strVal, nil
	}

	switch v := val.(type) {
	case fmt.Stringer:
		return v.String(), nil
	case []byte:
		return string(v), nil
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(val).Int(), 10), nil
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(val).Uint(), 10), nil
	case float32, float64:
		return strconv.FormatFloat(reflect.ValueOf(val).Float(), 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case error:
		return v.Error(), nil
	default:
		return "", fmt.Errorf("cannot convert type %T to string for key %v", val, key)
	}
}

// Int64 retrieves an int64 value for key.
// Attempts conversion from numeric types, parsable strings, and booleans.
func (r *Resolver) Int64(key any, opts ...ReadOptions) (int64, error) {
	val, err := r.Get(key, opts...)
	if err != nil {
		return 0, fmt.Errorf("key %v: %w", key, err)
	}
	if val == nil {
		return 0, fmt.Errorf("value for key %v is nil, cannot convert to int64", key)
	}
	if n, ok := val.(json.Number); ok {
		val = n.String()
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		maxInt64 := int64(^uint64(0) >> 1)
		if u > uint64(maxInt64) {
			return 0, fmt.Errorf("cannot convert unsigned integer %d (type %T) to int64 for key %v: overflow", u, val, key)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return int64(v.Float()), nil
	case reflect.String:
		s := v.String()
		// Base 0 accepts "0xFF" and friends
		if i, err := strconv.ParseInt(s, 0, 64); err == nil {
			return i, nil
		} else {
			if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
				return int64(f), nil
			}
			return 0, fmt.Errorf("cannot convert string %q to int64 for key %v: %w", s, key, err)
		}
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("cannot convert type %T to int64 for key %v", val, key)
}

// Bool retrieves a boolean value for key.
// Attempts conversion from numeric types (0=false, non-zero=true) and parsable strings.
func (r *Resolver) Bool(key any, opts ...ReadOptions) (bool, error) {
	val, err := r.Get(key, opts...)
	if err != nil {
		return false, fmt.Errorf("key %v: %w", key, err)
	}
	if val == nil {
		return false, fmt.Errorf("value for key %v is nil, cannot convert to bool", key)
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.String:
		s := v.String()
		if b, err := strconv.ParseBool(s); err == nil {
			return b, nil
		} else {
			return false, fmt.Errorf("cannot convert string %q to bool for key %v: %w", s, key, err)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() != 0, nil
	case reflect.Float32, reflect.Float64:
		return v.Float() != 0, nil
	}

	return false, fmt.Errorf("cannot convert type %T to bool for key %v", val, key)
}

// Float64 retrieves a float64 value for key.
// Attempts conversion from numeric types, parsable strings, and booleans.
func (r *Resolver) Float64(key any, opts ...ReadOptions) (float64, error) {
	val, err := r.Get(key, opts...)
	if err != nil {
		return 0, fmt.Errorf("key %v: %w", key, err)
	}
	if val == nil {
		return 0, fmt.Errorf("value for key %v is nil, cannot convert to float64", key)
	}
	if n, ok := val.(json.Number); ok {
		val = n.String()
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	case reflect.String:
		s := v.String()
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		} else {
			return 0, fmt.Errorf("cannot convert string %q to float64 for key %v: %w", s, key, err)
		}
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("cannot convert type %T to float64 for key %v", val, key)
}

// Duration retrieves a time.Duration value for key. Strings are parsed with
// time.ParseDuration, integers are taken as nanoseconds.
func (r *Resolver) Duration(key any, opts ...ReadOptions) (time.Duration, error) {
	val, err := r.Get(key, opts...)
	if err != nil {
		return 0, fmt.Errorf("key %v: %w", key, err)
	}

	switch v := val.(type) {
	case time.Duration:
		return v, nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string %q to duration for key %v: %w", v, key, err)
		}
		return d, nil
	}

	n, err := r.Int64(key, opts...)
	if err != nil {
		return 0, fmt.Errorf("cannot convert type %T to duration for key %v", val, key)
	}
	return time.Duration(n), nil
}
