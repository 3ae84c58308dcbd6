package gameerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesByKind(t *testing.T) {
	err := InvalidAction("not your turn")
	assert.True(t, errors.Is(err, ErrInvalidAction))
	assert.False(t, errors.Is(err, ErrResourceExhaustion))
	assert.False(t, errors.Is(err, ErrContentIntegrity))
}

func TestErrorMatchesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("choose: %w", ResourceExhaustion("need 20 mana, have 10"))
	assert.True(t, errors.Is(err, ErrResourceExhaustion))
	assert.Equal(t, KindResourceExhaustion, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestKindOfFindsJoinedErrors(t *testing.T) {
	err := errors.Join(errors.New("first"), fmt.Errorf("second: %w", ContentIntegrity("scene not found")))
	assert.Equal(t, KindContentIntegrity, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("yaml: bad")
	err := Wrap(KindContentIntegrity, "decoding effects", cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrContentIntegrity)
	assert.Contains(t, err.Error(), "decoding effects")
}
