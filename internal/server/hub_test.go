package server

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/coupfree/coup-server-go/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubScheduler never fires; lobby tests drive matches by verbs only.
type stubScheduler struct{}

type stubTask struct{}

func (stubTask) Stop() bool { return false }

func (stubScheduler) Schedule(d time.Duration, fn func()) game.Task { return stubTask{} }

func newTestHub() *Hub {
	return NewHub(game.NewManager(stubScheduler{}, zap.NewNop()), zap.NewNop())
}

func newTestClient(t *testing.T, hub *Hub, seq int) *Client {
	t.Helper()
	c := &Client{
		id:   fmt.Sprintf("client-%d", seq),
		send: make(chan []byte, sendBufferSize),
		hub:  hub,
	}
	hub.register(c)
	return c
}

// drain decodes every queued outbound message.
func drain(t *testing.T, c *Client) []OutboundMessage {
	t.Helper()
	var msgs []OutboundMessage
	for {
		select {
		case raw := <-c.send:
			var msg OutboundMessage
			require.NoError(t, json.Unmarshal(raw, &msg))
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func lastOfType(msgs []OutboundMessage, msgType string) (OutboundMessage, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == msgType {
			return msgs[i], true
		}
	}
	return OutboundMessage{}, false
}

func messageTypes(msgs []OutboundMessage) []string {
	types := make([]string, len(msgs))
	for i, m := range msgs {
		types[i] = m.Type
	}
	return types
}

func dataField(t *testing.T, msg OutboundMessage, key string) any {
	t.Helper()
	data, ok := msg.Data.(map[string]any)
	require.True(t, ok, "message data is not an object")
	return data[key]
}

func TestRegisterAssignsIdentity(t *testing.T) {
	hub := newTestHub()
	c := newTestClient(t, hub, 1)

	msgs := drain(t, c)
	assigned, ok := lastOfType(msgs, msgPlayerAssigned)
	require.True(t, ok)
	assert.Equal(t, c.id, dataField(t, assigned, "playerId"))
}

func TestCreateRoomMakesHost(t *testing.T) {
	hub := newTestHub()
	c := newTestClient(t, hub, 1)

	hub.handleMessage(c, InboundMessage{Type: msgCreateRoom, PlayerName: "Alice"})

	msgs := drain(t, c)
	created, ok := lastOfType(msgs, msgRoomCreated)
	require.True(t, ok)
	assert.True(t, dataField(t, created, "isHost").(bool))
	code := dataField(t, created, "roomCode").(string)
	assert.Len(t, code, roomCodeLength)

	roster, ok := lastOfType(msgs, msgPlayersUpdated)
	require.True(t, ok)
	players := roster.Data.(map[string]any)["players"].([]any)
	require.Len(t, players, 1)
	assert.Equal(t, "Alice", players[0].(map[string]any)["name"])
}

func TestCreateRoomTwiceRejected(t *testing.T) {
	hub := newTestHub()
	c := newTestClient(t, hub, 1)

	hub.handleMessage(c, InboundMessage{Type: msgCreateRoom})
	hub.handleMessage(c, InboundMessage{Type: msgCreateRoom})

	msgs := drain(t, c)
	_, rejected := lastOfType(msgs, msgRoomError)
	assert.True(t, rejected)
}

func TestJoinRoom(t *testing.T) {
	hub := newTestHub()
	host := newTestClient(t, hub, 1)
	guest := newTestClient(t, hub, 2)

	hub.handleMessage(host, InboundMessage{Type: msgCreateRoom, PlayerName: "Alice"})
	code := roomCodeOf(t, host)

	hub.handleMessage(guest, InboundMessage{Type: msgJoinRoom, RoomCode: code, PlayerName: "Bob"})

	msgs := drain(t, guest)
	joined, ok := lastOfType(msgs, msgRoomJoined)
	require.True(t, ok)
	assert.False(t, dataField(t, joined, "isHost").(bool))

	// The host sees the updated roster too.
	hostMsgs := drain(t, host)
	roster, ok := lastOfType(hostMsgs, msgPlayersUpdated)
	require.True(t, ok)
	players := roster.Data.(map[string]any)["players"].([]any)
	assert.Len(t, players, 2)
}

func TestJoinUnknownRoom(t *testing.T) {
	hub := newTestHub()
	c := newTestClient(t, hub, 1)

	hub.handleMessage(c, InboundMessage{Type: msgJoinRoom, RoomCode: "NOSUCH"})

	msgs := drain(t, c)
	errMsg, ok := lastOfType(msgs, msgRoomError)
	require.True(t, ok)
	assert.Equal(t, "Room not found", dataField(t, errMsg, "message"))
}

func TestJoinFullRoom(t *testing.T) {
	hub := newTestHub()
	host := newTestClient(t, hub, 1)
	hub.handleMessage(host, InboundMessage{Type: msgCreateRoom})
	code := roomCodeOf(t, host)

	for i := 2; i <= game.MaxPlayers; i++ {
		c := newTestClient(t, hub, i)
		hub.handleMessage(c, InboundMessage{Type: msgJoinRoom, RoomCode: code})
		msgs := drain(t, c)
		_, ok := lastOfType(msgs, msgRoomJoined)
		require.True(t, ok, "seat %d should join", i)
	}

	extra := newTestClient(t, hub, game.MaxPlayers+1)
	hub.handleMessage(extra, InboundMessage{Type: msgJoinRoom, RoomCode: code})
	msgs := drain(t, extra)
	errMsg, ok := lastOfType(msgs, msgRoomError)
	require.True(t, ok)
	assert.Equal(t, "Room is full", dataField(t, errMsg, "message"))
}

func TestHostMigrationOnLeave(t *testing.T) {
	hub := newTestHub()
	host := newTestClient(t, hub, 1)
	guest := newTestClient(t, hub, 2)

	hub.handleMessage(host, InboundMessage{Type: msgCreateRoom, PlayerName: "Alice"})
	code := roomCodeOf(t, host)
	hub.handleMessage(guest, InboundMessage{Type: msgJoinRoom, RoomCode: code, PlayerName: "Bob"})
	drain(t, guest)

	hub.handleMessage(host, InboundMessage{Type: msgLeaveRoom})

	msgs := drain(t, guest)
	roster, ok := lastOfType(msgs, msgPlayersUpdated)
	require.True(t, ok)
	players := roster.Data.(map[string]any)["players"].([]any)
	require.Len(t, players, 1)
	entry := players[0].(map[string]any)
	assert.Equal(t, "Bob", entry["name"])
	assert.True(t, entry["isHost"].(bool))
}

func TestRoomRemovedWhenEmpty(t *testing.T) {
	hub := newTestHub()
	c := newTestClient(t, hub, 1)
	hub.handleMessage(c, InboundMessage{Type: msgCreateRoom})
	code := roomCodeOf(t, c)

	hub.handleMessage(c, InboundMessage{Type: msgLeaveRoom})

	other := newTestClient(t, hub, 2)
	hub.handleMessage(other, InboundMessage{Type: msgJoinRoom, RoomCode: code})
	msgs := drain(t, other)
	errMsg, ok := lastOfType(msgs, msgRoomError)
	require.True(t, ok)
	assert.Equal(t, "Room not found", dataField(t, errMsg, "message"))
}

func TestStartGameRequiresHost(t *testing.T) {
	hub := newTestHub()
	host := newTestClient(t, hub, 1)
	guest := newTestClient(t, hub, 2)

	hub.handleMessage(host, InboundMessage{Type: msgCreateRoom})
	code := roomCodeOf(t, host)
	hub.handleMessage(guest, InboundMessage{Type: msgJoinRoom, RoomCode: code})
	drain(t, guest)

	hub.handleMessage(guest, InboundMessage{Type: msgStartGame})

	msgs := drain(t, guest)
	errMsg, ok := lastOfType(msgs, msgRoomError)
	require.True(t, ok)
	assert.Equal(t, "Only host can start the game", dataField(t, errMsg, "message"))
}

func TestStartGameNeedsEnoughPlayers(t *testing.T) {
	hub := newTestHub()
	host := newTestClient(t, hub, 1)
	hub.handleMessage(host, InboundMessage{Type: msgCreateRoom})
	drain(t, host)

	hub.handleMessage(host, InboundMessage{Type: msgStartGame})

	msgs := drain(t, host)
	_, rejected := lastOfType(msgs, msgRoomError)
	assert.True(t, rejected)
	assert.Equal(t, 0, hub.gameMgr.ActiveCount())
}

func TestStartGameDealsToEveryone(t *testing.T) {
	hub := newTestHub()
	host := newTestClient(t, hub, 1)
	guest := newTestClient(t, hub, 2)

	hub.handleMessage(host, InboundMessage{Type: msgCreateRoom, PlayerName: "Alice"})
	code := roomCodeOf(t, host)
	hub.handleMessage(guest, InboundMessage{Type: msgJoinRoom, RoomCode: code, PlayerName: "Bob"})
	drain(t, guest)

	hub.handleMessage(host, InboundMessage{Type: msgStartGame})

	for _, c := range []*Client{host, guest} {
		msgs := drain(t, c)
		assert.Contains(t, messageTypes(msgs), string(game.EventMatchStarted))
		assert.Contains(t, messageTypes(msgs), string(game.EventStateUpdated))
	}
	assert.Equal(t, 1, hub.gameMgr.ActiveCount())
}

func TestJoinWhileGameInProgress(t *testing.T) {
	hub := newTestHub()
	host := newTestClient(t, hub, 1)
	guest := newTestClient(t, hub, 2)

	hub.handleMessage(host, InboundMessage{Type: msgCreateRoom})
	code := roomCodeOf(t, host)
	hub.handleMessage(guest, InboundMessage{Type: msgJoinRoom, RoomCode: code})
	hub.handleMessage(host, InboundMessage{Type: msgStartGame})

	late := newTestClient(t, hub, 3)
	hub.handleMessage(late, InboundMessage{Type: msgJoinRoom, RoomCode: code})
	msgs := drain(t, late)
	errMsg, ok := lastOfType(msgs, msgRoomError)
	require.True(t, ok)
	assert.Equal(t, "Game already in progress", dataField(t, errMsg, "message"))
}

func TestActionRoutedToMatch(t *testing.T) {
	hub := newTestHub()
	host := newTestClient(t, hub, 1)
	guest := newTestClient(t, hub, 2)

	hub.handleMessage(host, InboundMessage{Type: msgCreateRoom})
	code := roomCodeOf(t, host)
	hub.handleMessage(guest, InboundMessage{Type: msgJoinRoom, RoomCode: code})
	hub.handleMessage(host, InboundMessage{Type: msgStartGame})
	drain(t, host)
	drain(t, guest)

	// Out of turn: rejection goes to the submitter only.
	hub.handleMessage(guest, InboundMessage{Type: msgPerformAction, Action: "income"})
	msgs := drain(t, guest)
	_, rejected := lastOfType(msgs, msgActionRejected)
	assert.True(t, rejected)
	assert.Empty(t, drain(t, host))

	// In turn: the whole room hears about it.
	hub.handleMessage(host, InboundMessage{Type: msgPerformAction, Action: "income"})
	assert.Contains(t, messageTypes(drain(t, guest)), string(game.EventLog))
}

func TestUnknownActionRejected(t *testing.T) {
	hub := newTestHub()
	host := newTestClient(t, hub, 1)
	guest := newTestClient(t, hub, 2)

	hub.handleMessage(host, InboundMessage{Type: msgCreateRoom})
	code := roomCodeOf(t, host)
	hub.handleMessage(guest, InboundMessage{Type: msgJoinRoom, RoomCode: code})
	hub.handleMessage(host, InboundMessage{Type: msgStartGame})
	drain(t, host)

	hub.handleMessage(host, InboundMessage{Type: msgPerformAction, Action: "bribe"})
	msgs := drain(t, host)
	_, rejected := lastOfType(msgs, msgActionRejected)
	assert.True(t, rejected)
}

func TestActionWithoutRoomRejected(t *testing.T) {
	hub := newTestHub()
	c := newTestClient(t, hub, 1)

	hub.handleMessage(c, InboundMessage{Type: msgPerformAction, Action: "income"})

	msgs := drain(t, c)
	_, rejected := lastOfType(msgs, msgActionRejected)
	assert.True(t, rejected)
}

func roomCodeOf(t *testing.T, c *Client) string {
	t.Helper()
	msgs := drain(t, c)
	created, ok := lastOfType(msgs, msgRoomCreated)
	require.True(t, ok, "no roomCreated message")
	return dataField(t, created, "roomCode").(string)
}
