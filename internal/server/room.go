package server

import (
	"sync"

	"github.com/coupfree/coup-server-go/internal/game"
)

// Room is one lobby and its (at most one) live match. It implements
// game.Sink so the match can deliver events without knowing anything about
// connections.
type Room struct {
	code string

	mu      sync.RWMutex
	clients []*Client
	match   *game.Match
}

func newRoom(code string) *Room {
	return &Room{code: code}
}

// addClient seats a client; the first to join becomes host.
func (r *Room) addClient(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.clients) >= game.MaxPlayers {
		return false
	}
	r.clients = append(r.clients, c)
	return true
}

// removeClient unseats a client, migrating host to the next seat. Returns
// the remaining client count.
func (r *Room) removeClient(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.clients {
		if existing == c {
			r.clients = append(r.clients[:i], r.clients[i+1:]...)
			break
		}
	}
	return len(r.clients)
}

// isHost reports whether c holds the host seat.
func (r *Room) isHost(c *Client) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients) > 0 && r.clients[0] == c
}

// seats snapshots the current roster in join order.
func (r *Room) seats() []game.Seat {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seats := make([]game.Seat, len(r.clients))
	for i, c := range r.clients {
		seats[i] = game.Seat{ID: c.id, Name: c.name}
	}
	return seats
}

// roster builds the playersUpdated payload.
func (r *Room) roster() RosterData {
	r.mu.RLock()
	defer r.mu.RUnlock()
	players := make([]RosterEntry, len(r.clients))
	for i, c := range r.clients {
		players[i] = RosterEntry{ID: c.id, Name: c.name, IsHost: i == 0}
	}
	return RosterData{Players: players}
}

// broadcastRoster announces the roster to every member.
func (r *Room) broadcastRoster() {
	data := r.roster()
	for _, c := range r.members() {
		c.Send(OutboundMessage{Type: msgPlayersUpdated, Data: data})
	}
}

// members snapshots the client list so callers can send without holding the
// room lock.
func (r *Room) members() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Client(nil), r.clients...)
}

// setMatch attaches the live match.
func (r *Room) setMatch(m *game.Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.match = m
}

// getMatch returns the live match, if any.
func (r *Room) getMatch() *game.Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.match
}

// Broadcast implements game.Sink.
func (r *Room) Broadcast(evt game.Event) {
	for _, c := range r.members() {
		c.Send(OutboundMessage{Type: string(evt.Type), Data: evt.Payload})
	}
}

// SendTo implements game.Sink. Disconnected players are silently skipped.
func (r *Room) SendTo(playerID string, evt game.Event) {
	for _, c := range r.members() {
		if c.id == playerID {
			c.Send(OutboundMessage{Type: string(evt.Type), Data: evt.Payload})
			return
		}
	}
}
