package server

// Inbound message types submitted by clients.
const (
	msgCreateRoom      = "createRoom"
	msgJoinRoom        = "joinRoom"
	msgStartGame       = "startGame"
	msgPerformAction   = "performAction"
	msgSelectTarget    = "selectTarget"
	msgChallengeAction = "challengeAction"
	msgBlockAction     = "blockAction"
	msgAllowAction     = "allowAction"
	msgSelectCards     = "selectCards"
	msgLoseInfluence   = "loseInfluence"
	msgLeaveRoom       = "leaveRoom"
)

// Outbound message types produced by the room/lobby layer. Game events use
// the game package's event type names directly.
const (
	msgPlayerAssigned = "playerAssigned"
	msgRoomCreated    = "roomCreated"
	msgRoomJoined     = "roomJoined"
	msgRoomError      = "roomError"
	msgActionRejected = "actionRejected"
	msgPlayersUpdated = "playersUpdated"
)

// InboundMessage is the envelope for every client intent. Only the fields
// relevant to the named type are set.
type InboundMessage struct {
	Type            string `json:"type"`
	RoomCode        string `json:"roomCode,omitempty"`
	PlayerName      string `json:"playerName,omitempty"`
	Action          string `json:"action,omitempty"`
	TargetID        string `json:"targetId,omitempty"`
	BlockingCard    string `json:"blockingCard,omitempty"`
	SelectedIndices []int  `json:"selectedIndices,omitempty"`
	CardIndex       int    `json:"cardIndex"`
}

// OutboundMessage is the envelope for every server-to-client event.
type OutboundMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// PlayerAssignedData tells a client its connection-scoped identity.
type PlayerAssignedData struct {
	PlayerID string `json:"playerId"`
}

// RoomAckData acknowledges room creation or joining.
type RoomAckData struct {
	RoomCode string `json:"roomCode"`
	IsHost   bool   `json:"isHost"`
}

// ErrorData carries a rejection reason to the submitter only.
type ErrorData struct {
	Message string `json:"message"`
}

// RosterEntry is one seat in a lobby roster update.
type RosterEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
}

// RosterData is the playersUpdated payload.
type RosterData struct {
	Players []RosterEntry `json:"players"`
}
