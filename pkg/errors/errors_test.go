package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, MetadataFor(CodeNotFound).HTTPStatus)
	assert.Equal(t, http.StatusBadRequest, MetadataFor(CodeInsufficientStock).HTTPStatus)
	assert.True(t, MetadataFor(CodeInsufficientStock).DetailsAllowed)

	// unknown codes degrade to internal
	assert.Equal(t, http.StatusInternalServerError, MetadataFor(Code("BOGUS")).HTTPStatus)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(CodeInternal, cause, "writing print file")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodeInternal, err.Code())
	assert.Equal(t, "writing print file", err.Message())
}

func TestAsUnwrapsNestedError(t *testing.T) {
	inner := New(CodeInsufficientStock, "insufficient stock").WithDetails(map[string]int{"available": 0, "requested": 1})
	wrapped := fmt.Errorf("creating order: %w", inner)

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeInsufficientStock, typed.Code())
	assert.NotNil(t, typed.Details())

	assert.Nil(t, As(fmt.Errorf("plain error")))
	assert.Nil(t, As(nil))
}

func TestDumpChain(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(CodeDependency, cause, "loading variant")

	dump := Dump(err)
	assert.Equal(t, string(CodeDependency), dump.Code)
	require.Len(t, dump.Chain, 2)
	assert.Contains(t, dump.Chain[1], "connection refused")
}
