package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	from, to, err := ParseDateRange("2024-03-01", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 16, 0, 0, 0, time.UTC), from.UTC())
	assert.Equal(t, 24*time.Hour, to.Sub(from))

	from, to, err = ParseDateRange("", "")
	require.NoError(t, err)
	assert.True(t, from.IsZero())
	assert.True(t, to.IsZero())

	_, to, err = ParseDateRange("", "2024-12-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 31, 16, 0, 0, 0, time.UTC), to.UTC())

	for _, tc := range [][2]string{
		{"2024-13-01", ""},
		{"", "01/02/2024"},
		{"2024-03-02", "2024-03-01"},
	} {
		_, _, err := ParseDateRange(tc[0], tc[1])
		assert.ErrorIs(t, err, ErrInvalidDateRange, tc)
	}
}
