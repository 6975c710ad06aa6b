package timeutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:05")
	require.NoError(t, err)
	assert.Equal(t, ClockTime{Hour: 9, Minute: 5}, c)
	assert.Equal(t, "09:05", c.String())

	for _, bad := range []string{"", "9", "24:00", "12:60", "aa:bb", "1:2:3"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestWallClock_UTC(t *testing.T) {
	got := WallClock(2024, time.January, 2, ClockTime{Hour: 9}, time.UTC)
	assert.True(t, got.Equal(time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)))
}

func TestWallClock_SpringForwardGapMovesForward(t *testing.T) {
	loc, err := LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2024-03-10 02:30 does not exist in New York.
	got := WallClock(2024, time.March, 10, ClockTime{Hour: 2, Minute: 30}, loc)
	assert.True(t, got.Equal(time.Date(2024, 3, 10, 7, 30, 0, 0, time.UTC)), got.UTC().String())
	assert.Equal(t, 3, got.Hour())
}

func TestWallClock_FallBackPicksFirstOccurrence(t *testing.T) {
	loc, err := LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2024-11-03 01:30 happens twice; the EDT one comes first.
	got := WallClock(2024, time.November, 3, ClockTime{Hour: 1, Minute: 30}, loc)
	assert.True(t, got.Equal(time.Date(2024, 11, 3, 5, 30, 0, 0, time.UTC)), got.UTC().String())
}

func TestAddMonthsClamped(t *testing.T) {
	y, m, d := AddMonthsClamped(2024, time.January, 31, 1)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.February, m)
	assert.Equal(t, 29, d)

	y, m, d = AddMonthsClamped(2023, time.December, 31, 2)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.February, m)
	assert.Equal(t, 29, d)
}

func TestFakeClock_AfterFiresOnAdvance(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	ch := clock.After(time.Minute)
	require.True(t, clock.BlockUntil(1, time.Second))

	clock.Advance(30 * time.Second)
	select {
	case <-ch:
		t.Fatal("fired too early")
	default:
	}

	clock.Advance(30 * time.Second)
	select {
	case got := <-ch:
		assert.True(t, got.Equal(start.Add(time.Minute)))
	default:
		t.Fatal("expected waiter to fire")
	}
	assert.Equal(t, 0, clock.Waiters())
}
