package leaverequest_test

import (
	"testing"
	"time"

	"go-leave/internal/leaverequest"
	leaverequesterrors "go-leave/internal/leaverequest/errors"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCountChargeableDays(t *testing.T) {
	t.Run("full working week", func(t *testing.T) {
		// Mon 2026-03-02 .. Fri 2026-03-06
		days, err := leaverequest.CountChargeableDays(date(2026, 3, 2), date(2026, 3, 6))
		assert.NoError(t, err)
		assert.Equal(t, 5, days)
	})

	t.Run("weekend only costs nothing", func(t *testing.T) {
		// Sat 2026-03-07 .. Sun 2026-03-08
		days, err := leaverequest.CountChargeableDays(date(2026, 3, 7), date(2026, 3, 8))
		assert.NoError(t, err)
		assert.Equal(t, 0, days)
	})

	t.Run("range spanning a weekend", func(t *testing.T) {
		// Fri 2026-03-06 .. Mon 2026-03-09
		days, err := leaverequest.CountChargeableDays(date(2026, 3, 6), date(2026, 3, 9))
		assert.NoError(t, err)
		assert.Equal(t, 2, days)
	})

	t.Run("single weekday", func(t *testing.T) {
		days, err := leaverequest.CountChargeableDays(date(2026, 3, 4), date(2026, 3, 4))
		assert.NoError(t, err)
		assert.Equal(t, 1, days)
	})

	t.Run("single saturday", func(t *testing.T) {
		days, err := leaverequest.CountChargeableDays(date(2026, 3, 7), date(2026, 3, 7))
		assert.NoError(t, err)
		assert.Equal(t, 0, days)
	})

	t.Run("two full weeks", func(t *testing.T) {
		// Mon 2026-03-02 .. Sun 2026-03-15
		days, err := leaverequest.CountChargeableDays(date(2026, 3, 2), date(2026, 3, 15))
		assert.NoError(t, err)
		assert.Equal(t, 10, days)
	})

	t.Run("negative start after end", func(t *testing.T) {
		_, err := leaverequest.CountChargeableDays(date(2026, 3, 6), date(2026, 3, 2))
		assert.ErrorIs(t, err, leaverequesterrors.ErrInvalidDateRange)
	})
}
