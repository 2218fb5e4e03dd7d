package domain

import "encoding/json"

// Resource is the home info payload: a decoded JSON value. A valid resource
// is an [Object] with at least one key or an [Array] with at least one
// element. Values handed out by the store are shared and must be treated as
// read-only.
type Resource = any

// Object is the decoded form of a JSON object.
type Object = map[string]any

// Array is the decoded form of a JSON array.
type Array = []any

// Valid reports whether r is a non-null object or array with at least one
// own key. Array indices count as keys.
func Valid(r Resource) bool {
	switch v := r.(type) {
	case Object:
		return len(v) > 0
	case Array:
		return len(v) > 0
	default:
		return false
	}
}

// Size returns the number of own keys of r, or zero when r is not an
// object or array.
func Size(r Resource) int {
	switch v := r.(type) {
	case Object:
		return len(v)
	case Array:
		return len(v)
	default:
		return 0
	}
}

// DecodeResource decodes raw JSON into a valid resource.
// It returns nil for anything that is not a non-empty object or array.
func DecodeResource(raw []byte) Resource {
	if len(raw) == 0 {
		return nil
	}
	var r any
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil
	}
	return ValidOrNil(r)
}

// ValidOrNil returns r when it is valid and nil otherwise.
func ValidOrNil(r Resource) Resource {
	if !Valid(r) {
		return nil
	}
	return r
}
