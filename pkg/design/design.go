// Package design models the customer-authored design payloads attached to
// cart and order items, and the element documents consumed by the print
// compositor.
package design

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/inkforge/inkforge-backend/pkg/errors"
)

// Object is a single design placement. Every field is optional; pointers keep
// key presence intact across serialize → store → load → deserialize.
type Object struct {
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Scale    *float64 `json:"scale,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
	Text     *string  `json:"text,omitempty"`
	Color    *string  `json:"color,omitempty"`
	ImageURL *string  `json:"imageUrl,omitempty"`
}

// numericKeys must decode as JSON numbers, stringKeys as JSON strings. Any
// other key is rejected outright.
var (
	numericKeys = map[string]bool{"x": true, "y": true, "scale": true, "rotation": true}
	stringKeys  = map[string]bool{"text": true, "color": true, "imageUrl": true}
)

// Validate checks a raw design payload against the allowed key set and the
// per-key types. The returned error names the first offending key.
func Validate(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, err, "design must be a JSON object")
	}

	for key, value := range fields {
		switch {
		case numericKeys[key]:
			var n float64
			if err := json.Unmarshal(value, &n); err != nil {
				return apperrors.Newf(apperrors.CodeValidation, "design field %q must be a number", key)
			}
		case stringKeys[key]:
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return apperrors.Newf(apperrors.CodeValidation, "design field %q must be a string", key)
			}
		default:
			return apperrors.Newf(apperrors.CodeValidation, "design field %q is not allowed", key)
		}
	}
	return nil
}

// Marshal serializes an object for storage as a text column.
func Marshal(obj Object) (string, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("marshaling design: %w", err)
	}
	return string(data), nil
}

// Decode parses a stored design blob back into an Object.
func Decode(stored string) (Object, error) {
	var obj Object
	if err := json.Unmarshal([]byte(stored), &obj); err != nil {
		return Object{}, fmt.Errorf("decoding design: %w", err)
	}
	return obj, nil
}
