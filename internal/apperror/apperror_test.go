package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("ingest: %w", Validation("no extractable content"))

	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "no extractable content", Message(err))
}

func TestUnavailableKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("elasticsearch search failed", cause)

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "elasticsearch search failed: connection refused", err.Error())
	assert.Equal(t, "elasticsearch search failed", Message(err))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		Validation("x"):             http.StatusBadRequest,
		NotFound("x"):               http.StatusNotFound,
		Conflict("x"):               http.StatusConflict,
		NoRelevantContext("x"):      http.StatusUnprocessableEntity,
		Generation("x", nil):        http.StatusBadGateway,
		Unavailable("x", nil):       http.StatusServiceUnavailable,
		errors.New("unclassified"): http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
}
