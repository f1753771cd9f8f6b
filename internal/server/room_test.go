package server

import (
	"fmt"
	"testing"

	"github.com/coupfree/coup-server-go/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoomClient(seq int) *Client {
	return &Client{
		id:   fmt.Sprintf("client-%d", seq),
		name: fmt.Sprintf("Player %d", seq),
		send: make(chan []byte, sendBufferSize),
	}
}

func TestRoomSeatCapacity(t *testing.T) {
	room := newRoom("ABC123")

	for i := 0; i < game.MaxPlayers; i++ {
		require.True(t, room.addClient(newRoomClient(i)))
	}
	assert.False(t, room.addClient(newRoomClient(game.MaxPlayers)))
}

func TestRoomHostFollowsFirstSeat(t *testing.T) {
	room := newRoom("ABC123")
	first := newRoomClient(1)
	second := newRoomClient(2)

	room.addClient(first)
	room.addClient(second)
	assert.True(t, room.isHost(first))
	assert.False(t, room.isHost(second))

	remaining := room.removeClient(first)
	assert.Equal(t, 1, remaining)
	assert.True(t, room.isHost(second))
}

func TestRoomSeatsPreserveJoinOrder(t *testing.T) {
	room := newRoom("ABC123")
	for i := 1; i <= 3; i++ {
		room.addClient(newRoomClient(i))
	}

	seats := room.seats()
	require.Len(t, seats, 3)
	for i, seat := range seats {
		assert.Equal(t, fmt.Sprintf("client-%d", i+1), seat.ID)
		assert.Equal(t, fmt.Sprintf("Player %d", i+1), seat.Name)
	}
}

func TestRoomSendToSkipsUnknownPlayer(t *testing.T) {
	room := newRoom("ABC123")

	// Must not panic or block on a player that never joined.
	room.SendTo("ghost", game.Event{Type: game.EventLog})
}
