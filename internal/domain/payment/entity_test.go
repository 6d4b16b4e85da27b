package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	p, err := New("p-1", "m-1", "2024-05", 150000, now, now)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)

	tests := []struct {
		name   string
		period string
		amount int64
		want   error
	}{
		{"bad month", "2024-13", 1, ErrInvalidPeriod},
		{"bad format", "May 2024", 1, ErrInvalidPeriod},
		{"zero amount", "2024", 0, ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("p", "m", tt.period, tt.amount, now, now)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSettle(t *testing.T) {
	p, err := New("p-1", "m-1", "2024", 150000, now, now)
	require.NoError(t, err)

	assert.ErrorIs(t, p.Settle(StatusPending, "a", now), ErrInvalidStatus)
	require.NoError(t, p.Settle(StatusVerified, "admin-1", now.Add(time.Hour)))
	assert.Equal(t, StatusVerified, p.Status)
	require.NotNil(t, p.VerifiedBy)
	assert.Equal(t, "admin-1", *p.VerifiedBy)

	assert.ErrorIs(t, p.Settle(StatusRejected, "a", now), ErrAlreadySettled)
}
