package game

// EventType indicates the category of an outbound event.
type EventType string

const (
	EventMatchStarted EventType = "matchStarted"
	EventStateUpdated EventType = "stateUpdated"
	EventActionPrompt EventType = "actionPrompt"
	EventLog          EventType = "logMessage"
	EventTurnClock    EventType = "turnClock"
	EventMatchEnded   EventType = "matchEnded"
	EventWaiting      EventType = "waitingForResponse"
	EventHideWaiting  EventType = "hideWaiting"
	EventMatchLost    EventType = "matchLost"
)

// Prompt kinds carried in actionPrompt payloads.
const (
	PromptSelectTarget  = "selectTarget"
	PromptChallenge     = "challengePhase"
	PromptSelectCards   = "selectCards"
	PromptLoseInfluence = "loseInfluence"
)

// Event is one outbound notification produced by the match.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// Sink delivers outbound events to connected players. Implementations must
// not block: the match invokes these while holding its own lock.
type Sink interface {
	// Broadcast delivers the event to every connection in the room.
	Broadcast(evt Event)
	// SendTo delivers the event to one player; unknown or disconnected
	// players are silently skipped.
	SendTo(playerID string, evt Event)
}

// TargetOption is one selectable target in a selectTarget prompt.
type TargetOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TargetPrompt asks the actor to pick a target for coup/assassinate/steal.
type TargetPrompt struct {
	Prompt       string         `json:"prompt"`
	Action       string         `json:"action"`
	ValidTargets []TargetOption `json:"validTargets"`
}

// ChallengePrompt invites a player into a challenge/block phase. The flags
// are tailored per recipient: the same phase can offer challenge-only,
// block-only, or both.
type ChallengePrompt struct {
	Prompt       string   `json:"prompt"`
	Action       string   `json:"action"`
	Phase        string   `json:"phase"` // "action" or "block"
	CanChallenge bool     `json:"canChallenge"`
	CanBlock     bool     `json:"canBlock"`
	BlockOptions []string `json:"blockOptions,omitempty"`
	Blocker      string   `json:"blocker,omitempty"`
	BlockingCard string   `json:"blockingCard,omitempty"`
}

// CardSelectionPrompt asks the actor which cards to keep after an exchange.
type CardSelectionPrompt struct {
	Prompt    string   `json:"prompt"`
	Cards     []string `json:"cards"`
	KeepCount int      `json:"keepCount"`
}

// InfluenceLossPrompt asks a player which influence card to give up.
type InfluenceLossPrompt struct {
	Prompt string   `json:"prompt"`
	Cards  []string `json:"playerCards"`
}

// WaitingNotice tells the actor the table is responding to their action.
type WaitingNotice struct {
	Action  string `json:"action"`
	Message string `json:"message"`
}

// LogMessage is one entry of the public event feed.
type LogMessage struct {
	Message string `json:"message"`
}

// TurnClockUpdate broadcasts the remaining turn time.
type TurnClockUpdate struct {
	MillisRemaining int64 `json:"msRemaining"`
}

// MatchEndedNotice announces the winner, or none if every seat fell.
type MatchEndedNotice struct {
	Winner *TargetOption `json:"winner"`
}
