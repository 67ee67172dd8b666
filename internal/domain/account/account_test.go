package account

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	assert.Equal(t, 503, StatusOf(fmt.Errorf("wrap: %w", &UpstreamError{Status: 503, Message: "down"})))
	assert.Equal(t, 404, StatusOf(fmt.Errorf("wrap: %w", ErrNotFound)))
	assert.Equal(t, 0, StatusOf(&TransportError{Op: "get", Err: errors.New("connection refused")}))
	assert.Equal(t, 0, StatusOf(nil))
}

func TestTransportErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := &TransportError{Op: "credit", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "credit")
}
