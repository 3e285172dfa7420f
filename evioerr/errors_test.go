package evioerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapIs(t *testing.T) {
	err := Wrap(ErrBadMagic, "offset %d", 42)
	require.ErrorIs(t, err, ErrBadMagic)
	require.Contains(t, err.Error(), "offset 42")
}

func TestWrapCauseUnwrapsBoth(t *testing.T) {
	cause := errors.New("short buffer")
	err := WrapCause(ErrCompressionError, cause, "record %d", 7)

	require.ErrorIs(t, err, ErrCompressionError)
	require.ErrorIs(t, err, cause)
}
