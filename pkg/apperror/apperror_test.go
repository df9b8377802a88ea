package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("redeem failed: %w", InsufficientFunds(100, 40))

	assert.True(t, IsCode(err, CodeInsufficientFunds))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(errors.New("plain"), CodeInsufficientFunds))
	assert.False(t, IsCode(nil, CodeInsufficientFunds))
}

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("report")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(InvalidState("bad")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(InsufficientFunds(10, 5)))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Unavailable("product")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(OutOfStock("product")))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(Conflict("user")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestMessages(t *testing.T) {
	assert.EqualError(t, NotFound("product"), "product not found")
	assert.EqualError(t, InsufficientFunds(100, 40), "insufficient points: required 100, available 40")
	assert.EqualError(t, Unavailable("product Mug"), "product Mug is not available")
}
