package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-service/internal/apperror"
)

func TestDateOrTodayMatchesParsedFilter(t *testing.T) {
	// late evening west of UTC, already the next day in UTC
	now := time.Date(2024, 3, 9, 22, 0, 0, 0, time.FixedZone("UTC-5", -5*3600))

	today, err := dateOrToday("", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), today)

	filter, err := ParseDate("2024-03-09")
	require.NoError(t, err)
	assert.True(t, today.Equal(filter))

	given, err := dateOrToday("2024-01-31", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), given)

	_, err = dateOrToday("31/01/2024", now)
	assert.ErrorIs(t, err, apperror.ErrInvalidRequest)
}
