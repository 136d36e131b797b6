package gberrors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIs(t *testing.T) {
	err := AlreadyConverted.WithMsg("security abc already converted")
	assert.True(t, Is(err, AlreadyConverted))
	assert.False(t, Is(err, InvalidInput))

	wrapped := errors.Wrap(err, "sweep")
	assert.True(t, Is(wrapped, AlreadyConverted))

	assert.False(t, Is(fmt.Errorf("plain"), AlreadyConverted))
	assert.False(t, Is(nil, AlreadyConverted))
}

func TestWithMsgDoesNotMutate(t *testing.T) {
	e := DivisionByZero.WithMsg("conversion price is zero")
	assert.Equal(t, "conversion price is zero", e.Message)
	assert.Equal(t, "division by zero", DivisionByZero.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, e.ExceptionStatusCode())
}

func TestFormat(t *testing.T) {
	err := InternalServerError.WithError(fmt.Errorf("connection reset"))
	assert.Equal(t,
		"internal server error occurred (Code = 50010000) : connection reset",
		Format(err))
	assert.Equal(t, "plain", Format(fmt.Errorf("plain")))
	assert.True(t, IsNotFound(NotFound.WithMsg("round not found")))
}
