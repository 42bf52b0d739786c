package errors

import "errors"

// Dump flattens an error chain into loggable fields.
type DumpResult struct {
	TopMessage string
	Code       string
	Chain      []string
}

// Dump walks the wrapped chain so handlers can log the full causal path.
func Dump(err error) DumpResult {
	result := DumpResult{}
	if err == nil {
		return result
	}

	result.TopMessage = err.Error()
	if typed := As(err); typed != nil {
		result.Code = string(typed.Code())
	}

	for cursor := err; cursor != nil; cursor = errors.Unwrap(cursor) {
		result.Chain = append(result.Chain, cursor.Error())
	}
	return result
}
