package validation

import (
	"reflect"
	"strings"

	"github.com/wptools/wp-backup/internal/secrets"
)

const maskValue = "***"

// Keys whose values are always masked wholesale.
var sensitiveKeys = map[string]bool{
	"password": true,
	"secret":   true,
	"token":    true,
	"key":      true,
}

// SanitizeForLogging walks a configuration value and returns a plain
// map/slice/scalar tree safe to display: values under password/secret/
// token/key fields are replaced with a fixed mask and email-shaped
// strings keep only their domain. Use it for display only, never as an
// input to validation.
func SanitizeForLogging(v interface{}) interface{} {
	return sanitizeValue(reflect.ValueOf(v), "")
}

func sanitizeValue(rv reflect.Value, key string) interface{} {
	if !rv.IsValid() {
		return nil
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return sanitizeValue(rv.Elem(), key)

	case reflect.Struct:
		out := make(map[string]interface{}, rv.NumField())
		t := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			out[field.Name] = sanitizeValue(rv.Field(i), field.Name)
		}
		return out

	case reflect.Map:
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, hasString := iter.Key().Interface().(string)
			if !hasString {
				continue
			}
			out[k] = sanitizeValue(iter.Value(), k)
		}
		return out

	case reflect.Slice, reflect.Array:
		out := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = sanitizeValue(rv.Index(i), key)
		}
		return out

	case reflect.String:
		return sanitizeString(rv.String(), key)

	default:
		return rv.Interface()
	}
}

func sanitizeString(s, key string) string {
	if sensitiveKeys[strings.ToLower(key)] {
		return maskValue
	}

	// Partially mask email-shaped values: keep the domain.
	if strings.Contains(s, "@") && strings.Contains(s, ".") {
		masked := secrets.Mask(s)
		if masked != s {
			return masked
		}
	}

	return s
}
