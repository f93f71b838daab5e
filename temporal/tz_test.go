package temporal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTzLocalize(t *testing.T) {
	// Wall times in New York:
	//   2024-03-10 02:30 (skipped by spring-forward)
	//   2024-11-03 01:30 (repeated by fall-back)
	//   2024-01-15 12:00 (EST)
	//   2024-03-10 03:30 (EDT)
	//   missing
	wall := dts(t, Second, []int64{1710037800, 1730597400, 1705320000, 1710041400, 0},
		[]bool{true, true, true, true, false})

	t.Run("ambiguous and nonexistent", func(t *testing.T) {
		amb, non, ok, err := wall.FindAmbiguousAndNonexistent("America/New_York")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "Column<bool>[false, true, false, false, false]", amb.GoString())
		require.Equal(t, "Column<bool>[true, false, false, false, false]", non.GoString())

		_, _, ok, err = wall.FindAmbiguousAndNonexistent("UTC")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("localize", func(t *testing.T) {
		ny, err := wall.TzLocalize("America/New_York", PolicyNaT, PolicyNaT)
		require.NoError(t, err)
		require.Equal(t, "America/New_York", ny.Timezone())
		require.Equal(t, "Column<datetime64[s]>[null, null, 1705338000, 1710055800, null]", ny.Column().GoString())

		t.Run("round trip to wall time", func(t *testing.T) {
			back, err := ny.TzLocalize("", PolicyNaT, PolicyNaT)
			require.NoError(t, err)
			require.False(t, back.IsAware())
			require.Equal(t, "Column<datetime64[s]>[null, null, 1705320000, 1710041400, null]", back.Column().GoString())
		})

		t.Run("already aware", func(t *testing.T) {
			_, err := ny.TzLocalize("Europe/Paris", PolicyNaT, PolicyNaT)
			require.ErrorIs(t, err, ErrTypeIncompatible)
		})
	})

	t.Run("before 1677", func(t *testing.T) {
		// 1600-06-01 00:00:00 only fits at units coarser than nanoseconds.
		old := dts(t, Second, []int64{-11662963200}, nil)
		for _, zone := range []string{"UTC", "Europe/Berlin"} {
			aware, err := old.TzLocalize(zone, PolicyNaT, PolicyNaT)
			require.NoError(t, err, zone)
			require.Zero(t, aware.Column().NullCount(), zone)

			year, err := aware.Year()
			require.NoError(t, err, zone)
			require.Equal(t, "Column<int16>[1600]", year.GoString(), zone)

			back, err := aware.TzLocalize("", PolicyNaT, PolicyNaT)
			require.NoError(t, err, zone)
			require.Equal(t, old.Column().GoString(), back.Column().GoString(), zone)
		}
		utc, err := old.TzLocalize("UTC", PolicyNaT, PolicyNaT)
		require.NoError(t, err)
		require.Equal(t, old.Column().GoString(), utc.Column().GoString())
	})

	t.Run("utc is identity", func(t *testing.T) {
		utc, err := wall.TzLocalize("UTC", PolicyNaT, PolicyNaT)
		require.NoError(t, err)
		require.Equal(t, wall.Column().GoString(), utc.Column().GoString())

		ns := dts(t, Nanosecond, []int64{-1 << 62, 1 << 62}, nil)
		utc, err = ns.TzLocalize("UTC", PolicyNaT, PolicyNaT)
		require.NoError(t, err)
		require.Equal(t, ns.Column().GoString(), utc.Column().GoString())
	})

	t.Run("empty zone on naive copies", func(t *testing.T) {
		cp, err := wall.TzLocalize("", PolicyNaT, PolicyNaT)
		require.NoError(t, err)
		require.NotSame(t, wall.Column(), cp.Column())
		require.Equal(t, wall.Column().GoString(), cp.Column().GoString())
	})

	t.Run("policies", func(t *testing.T) {
		_, err := wall.TzLocalize("America/New_York", PolicyRaise, PolicyNaT)
		require.ErrorIs(t, err, ErrNotImplemented)
		_, err = wall.TzLocalize("America/New_York", PolicyNaT, PolicyShiftForward)
		require.ErrorIs(t, err, ErrNotImplemented)

		p, err := ParsePolicy("shift_backward")
		require.NoError(t, err)
		require.Equal(t, PolicyShiftBackward, p)
		_, err = ParsePolicy("guess")
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown zone", func(t *testing.T) {
		_, err := wall.TzLocalize("Mars/Olympus_Mons", PolicyNaT, PolicyNaT)
		require.ErrorIs(t, err, ErrInvalidInput)
		_, err = NewDatetimeColumn(wall.Column(), "Mars/Olympus_Mons")
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestTzConvert(t *testing.T) {
	utc := dts(t, Second, []int64{1705338000}, nil)
	ny, err := utc.WithTimezone("America/New_York")
	require.NoError(t, err)

	t.Run("naive is rejected", func(t *testing.T) {
		_, err := utc.TzConvert("Europe/Paris")
		require.ErrorIs(t, err, ErrTypeIncompatible)
	})

	t.Run("to naive shares storage", func(t *testing.T) {
		naive, err := ny.TzConvert("")
		require.NoError(t, err)
		require.False(t, naive.IsAware())
		require.Same(t, ny.Column(), naive.Column())
	})

	t.Run("same zone copies", func(t *testing.T) {
		cp, err := ny.TzConvert("America/New_York")
		require.NoError(t, err)
		require.NotSame(t, ny.Column(), cp.Column())
		require.Equal(t, ny.String(), cp.String())
	})

	t.Run("other zone re-tags", func(t *testing.T) {
		// 2024-01-15 17:00 UTC is 18:00 in Paris and 12:00 in New York.
		paris, err := ny.TzConvert("Europe/Paris")
		require.NoError(t, err)
		require.Same(t, ny.Column(), paris.Column())
		h, err := paris.Hour()
		require.NoError(t, err)
		require.Equal(t, "Column<int16>[18]", h.GoString())
		h, err = ny.Hour()
		require.NoError(t, err)
		require.Equal(t, "Column<int16>[12]", h.GoString())
		require.Equal(t, "Column<datetime64[s]>[1705338000][Europe/Paris]", paris.String())
	})
}
