package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConflictQuery(t *testing.T) {
	t.Parallel()
	t.Run("create path checks all rows of the set", func(t *testing.T) {
		query, args, err := conflictQuery("Set A", "2026-01-10", "2026-01-12", 0)
		require.NoError(t, err)
		require.Equal(t,
			"SELECT 1 FROM bookings WHERE navlight_set = $1 AND NOT ($2::date < pickup_date OR $3::date > return_date) LIMIT 1",
			query)
		require.Equal(t, []interface{}{"Set A", "2026-01-12", "2026-01-10"}, args)
	})

	t.Run("update path excludes the booking's own row", func(t *testing.T) {
		query, args, err := conflictQuery("Set A", "2026-01-10", "2026-01-12", 1700000000000)
		require.NoError(t, err)
		require.Equal(t,
			"SELECT 1 FROM bookings WHERE navlight_set = $1 AND NOT ($2::date < pickup_date OR $3::date > return_date) AND id <> $4 LIMIT 1",
			query)
		require.Equal(t, []interface{}{"Set A", "2026-01-12", "2026-01-10", int64(1700000000000)}, args)
	})
}
