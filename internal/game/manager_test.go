package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSeats(n int) []Seat {
	seats := make([]Seat, n)
	for i := range seats {
		seats[i] = Seat{ID: string(rune('a' + i)), Name: "Player"}
	}
	return seats
}

func TestManagerCreateAndGet(t *testing.T) {
	mgr := NewManager(newFakeScheduler(), zap.NewNop())

	match, err := mgr.CreateMatch("ROOM01", testSeats(3), newRecordingSink())
	require.NoError(t, err)
	require.NotNil(t, match)

	got, ok := mgr.GetMatch("ROOM01")
	assert.True(t, ok)
	assert.Same(t, match, got)
	assert.Equal(t, 1, mgr.ActiveCount())

	_, ok = mgr.GetMatch("NOSUCH")
	assert.False(t, ok)
}

func TestManagerRejectsDuplicateRoom(t *testing.T) {
	mgr := NewManager(newFakeScheduler(), zap.NewNop())

	_, err := mgr.CreateMatch("ROOM01", testSeats(2), newRecordingSink())
	require.NoError(t, err)

	_, err = mgr.CreateMatch("ROOM01", testSeats(2), newRecordingSink())
	assert.Error(t, err)
}

func TestManagerRejectsBadSeatCount(t *testing.T) {
	mgr := NewManager(newFakeScheduler(), zap.NewNop())

	_, err := mgr.CreateMatch("ROOM01", testSeats(1), newRecordingSink())
	assert.Error(t, err)
	assert.Equal(t, 0, mgr.ActiveCount())
}

func TestManagerRemoveMatch(t *testing.T) {
	mgr := NewManager(newFakeScheduler(), zap.NewNop())

	_, err := mgr.CreateMatch("ROOM01", testSeats(2), newRecordingSink())
	require.NoError(t, err)

	mgr.RemoveMatch("ROOM01")
	_, ok := mgr.GetMatch("ROOM01")
	assert.False(t, ok)
	assert.Equal(t, 0, mgr.ActiveCount())

	// Removing twice is harmless.
	mgr.RemoveMatch("ROOM01")
}
