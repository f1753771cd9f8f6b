package server

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/coupfree/coup-server-go/internal/game"
	"go.uber.org/zap"
)

const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 6
)

// Hub owns connection registration and room membership, and routes every
// inbound intent to the right match. It never touches game rules itself.
type Hub struct {
	logger  *zap.Logger
	gameMgr *game.Manager

	mu         sync.Mutex
	rooms      map[string]*Room
	clients    map[*Client]bool
	clientRoom map[*Client]*Room
	rng        *rand.Rand
}

// NewHub creates a hub backed by the given match registry.
func NewHub(gameMgr *game.Manager, logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		gameMgr:    gameMgr,
		rooms:      make(map[string]*Room),
		clients:    make(map[*Client]bool),
		clientRoom: make(map[*Client]*Room),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// register admits a new connection and assigns its identity.
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	c.Send(OutboundMessage{Type: msgPlayerAssigned, Data: PlayerAssignedData{PlayerID: c.id}})
	h.logger.Debug("client registered", zap.String("client_id", c.id))
}

// disconnect removes a connection entirely. Safe to call more than once.
func (h *Hub) disconnect(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	h.mu.Unlock()

	h.leaveRoom(c)
	c.conn.Close()
	h.logger.Debug("client disconnected", zap.String("client_id", c.id))
}

// leaveRoom unseats the client from its room, tearing the room down when it
// empties and exiling the player from any live match.
func (h *Hub) leaveRoom(c *Client) {
	h.mu.Lock()
	room := h.clientRoom[c]
	delete(h.clientRoom, c)
	h.mu.Unlock()

	if room == nil {
		return
	}

	remaining := room.removeClient(c)
	if remaining == 0 {
		h.mu.Lock()
		delete(h.rooms, room.code)
		h.mu.Unlock()
		h.gameMgr.RemoveMatch(room.code)
		h.logger.Info("room removed", zap.String("room_code", room.code))
		return
	}

	room.broadcastRoster()
	if match := room.getMatch(); match != nil && !match.Ended() {
		match.HandleDisconnect(c.id)
	}
}

// handleMessage dispatches one inbound intent.
func (h *Hub) handleMessage(c *Client, msg InboundMessage) {
	switch msg.Type {
	case msgCreateRoom:
		h.createRoom(c, msg.PlayerName)
	case msgJoinRoom:
		h.joinRoom(c, msg.RoomCode, msg.PlayerName)
	case msgStartGame:
		h.startGame(c)
	case msgLeaveRoom:
		h.leaveRoom(c)
	case msgPerformAction:
		kind, err := game.ParseActionKind(msg.Action)
		if err != nil {
			h.reject(c, err)
			return
		}
		h.withMatch(c, func(m *game.Match) error { return m.DeclareAction(c.id, kind) })
	case msgSelectTarget:
		h.withMatch(c, func(m *game.Match) error { return m.SelectTarget(c.id, msg.TargetID) })
	case msgChallengeAction:
		h.withMatch(c, func(m *game.Match) error { return m.Challenge(c.id) })
	case msgBlockAction:
		card, err := game.ParseCharacter(msg.BlockingCard)
		if err != nil {
			h.reject(c, game.ErrInvalidBlockCard)
			return
		}
		h.withMatch(c, func(m *game.Match) error { return m.Block(c.id, card) })
	case msgAllowAction:
		h.withMatch(c, func(m *game.Match) error { return m.Allow(c.id) })
	case msgSelectCards:
		h.withMatch(c, func(m *game.Match) error { return m.SelectKeptCards(c.id, msg.SelectedIndices) })
	case msgLoseInfluence:
		h.withMatch(c, func(m *game.Match) error { return m.LoseInfluence(c.id, msg.CardIndex) })
	default:
		c.Send(OutboundMessage{Type: msgRoomError, Data: ErrorData{Message: fmt.Sprintf("unknown message type %q", msg.Type)}})
	}
}

func (h *Hub) createRoom(c *Client, playerName string) {
	h.mu.Lock()
	if h.clientRoom[c] != nil {
		h.mu.Unlock()
		c.Send(OutboundMessage{Type: msgRoomError, Data: ErrorData{Message: "already in a room"}})
		return
	}
	var code string
	for {
		code = h.generateRoomCodeLocked()
		if _, exists := h.rooms[code]; !exists {
			break
		}
	}
	room := newRoom(code)
	h.rooms[code] = room
	h.clientRoom[c] = room
	h.mu.Unlock()

	c.name = displayName(playerName, 1)
	room.addClient(c)
	c.Send(OutboundMessage{Type: msgRoomCreated, Data: RoomAckData{RoomCode: code, IsHost: true}})
	room.broadcastRoster()

	h.logger.Info("room created",
		zap.String("room_code", code),
		zap.String("host_id", c.id),
	)
}

func (h *Hub) joinRoom(c *Client, code, playerName string) {
	h.mu.Lock()
	if h.clientRoom[c] != nil {
		h.mu.Unlock()
		c.Send(OutboundMessage{Type: msgRoomError, Data: ErrorData{Message: "already in a room"}})
		return
	}
	room, ok := h.rooms[code]
	h.mu.Unlock()

	if !ok {
		c.Send(OutboundMessage{Type: msgRoomError, Data: ErrorData{Message: "Room not found"}})
		return
	}
	if match := room.getMatch(); match != nil && !match.Ended() {
		c.Send(OutboundMessage{Type: msgRoomError, Data: ErrorData{Message: "Game already in progress"}})
		return
	}

	c.name = displayName(playerName, len(room.members())+1)
	if !room.addClient(c) {
		c.Send(OutboundMessage{Type: msgRoomError, Data: ErrorData{Message: "Room is full"}})
		return
	}
	h.mu.Lock()
	h.clientRoom[c] = room
	h.mu.Unlock()

	c.Send(OutboundMessage{Type: msgRoomJoined, Data: RoomAckData{RoomCode: code, IsHost: room.isHost(c)}})
	room.broadcastRoster()
}

func (h *Hub) startGame(c *Client) {
	h.mu.Lock()
	room := h.clientRoom[c]
	h.mu.Unlock()

	if room == nil {
		c.Send(OutboundMessage{Type: msgRoomError, Data: ErrorData{Message: "not in a room"}})
		return
	}
	if !room.isHost(c) {
		c.Send(OutboundMessage{Type: msgRoomError, Data: ErrorData{Message: "Only host can start the game"}})
		return
	}

	if match := room.getMatch(); match != nil {
		if !match.Ended() {
			c.Send(OutboundMessage{Type: msgRoomError, Data: ErrorData{Message: "Game already in progress"}})
			return
		}
		room.setMatch(nil)
		h.gameMgr.RemoveMatch(room.code)
	}

	seats := room.seats()
	match, err := h.gameMgr.CreateMatch(room.code, seats, room)
	if err != nil {
		c.Send(OutboundMessage{Type: msgRoomError, Data: ErrorData{Message: err.Error()}})
		return
	}
	room.setMatch(match)
	if err := match.Start(); err != nil {
		room.setMatch(nil)
		h.gameMgr.RemoveMatch(room.code)
		c.Send(OutboundMessage{Type: msgRoomError, Data: ErrorData{Message: err.Error()}})
		return
	}
}

// withMatch routes a verb into the client's live match, reporting any
// rejection back to the submitter only.
func (h *Hub) withMatch(c *Client, fn func(*game.Match) error) {
	h.mu.Lock()
	room := h.clientRoom[c]
	h.mu.Unlock()

	if room == nil {
		h.reject(c, fmt.Errorf("not in a room"))
		return
	}
	match := room.getMatch()
	if match == nil {
		h.reject(c, fmt.Errorf("no active match"))
		return
	}
	if err := fn(match); err != nil {
		h.reject(c, err)
	}
}

func (h *Hub) reject(c *Client, err error) {
	c.Send(OutboundMessage{Type: msgActionRejected, Data: ErrorData{Message: err.Error()}})
}

// NotifyMatchLost tells every connected client its match state is gone.
// Only used when the process is shutting down with matches still live.
func (h *Hub) NotifyMatchLost() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Send(OutboundMessage{Type: string(game.EventMatchLost), Data: ErrorData{Message: "server shutting down; match state lost"}})
	}
}

func (h *Hub) generateRoomCodeLocked() string {
	code := make([]byte, roomCodeLength)
	for i := range code {
		code[i] = roomCodeAlphabet[h.rng.Intn(len(roomCodeAlphabet))]
	}
	return string(code)
}

func displayName(name string, seat int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("Player %d", seat)
}
