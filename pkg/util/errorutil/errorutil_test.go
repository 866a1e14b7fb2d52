package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorKeepsDomainErrors(t *testing.T) {
	wrapped := fmt.Errorf("create asset: %w", NewDuplicateTag())

	de := ToDomainError(wrapped)
	require.NotNil(t, de)
	assert.Equal(t, CodeDuplicateTag, de.Code)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	de := ToDomainError(fmt.Errorf("load ticket: %w", pgx.ErrNoRows))
	require.NotNil(t, de)
	assert.Equal(t, CodeNotFound, de.Code)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
}

func TestToDomainErrorFallsBackToInternal(t *testing.T) {
	cause := errors.New("boom")
	de := ToDomainError(cause)
	require.NotNil(t, de)
	assert.Equal(t, CodeInternal, de.Code)
	assert.ErrorIs(t, de, cause)
}

func TestToDomainErrorNil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode(NewAlreadyInStatus("s1"), CodeAlreadyInStatus))
	assert.False(t, IsCode(NewNothingToUpdate(), CodeAlreadyInStatus))
	assert.False(t, IsCode(errors.New("plain"), CodeAlreadyInStatus))
}
