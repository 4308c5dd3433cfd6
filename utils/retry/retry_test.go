package retry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errTransient = errors.New("transient")

func transientOnly(err error) bool { return errors.Is(err, errTransient) }

func TestDo(t *testing.T) {
	t.Run("returns on first success", func(t *testing.T) {
		calls := 0
		err := Do(3, 0, transientOnly, func() error {
			calls++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient failures until success", func(t *testing.T) {
		calls := 0
		err := Do(3, 0, transientOnly, func() error {
			calls++
			if calls < 3 {
				return errTransient
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops immediately on a non-retryable error", func(t *testing.T) {
		permanent := errors.New("permanent")
		calls := 0
		err := Do(3, 0, transientOnly, func() error {
			calls++
			return permanent
		})
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("returns the last error when attempts run out", func(t *testing.T) {
		calls := 0
		err := Do(3, 0, transientOnly, func() error {
			calls++
			return errTransient
		})
		assert.ErrorIs(t, err, errTransient)
		assert.Equal(t, 3, calls)
	})
}
