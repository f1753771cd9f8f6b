package game

import "fmt"

// ActionKind identifies a turn verb.
type ActionKind int

const (
	ActionIncome ActionKind = iota
	ActionForeignAid
	ActionCoup
	ActionTax
	ActionAssassinate
	ActionSteal
	ActionExchange
)

var actionNames = map[ActionKind]string{
	ActionIncome:      "income",
	ActionForeignAid:  "foreignAid",
	ActionCoup:        "coup",
	ActionTax:         "tax",
	ActionAssassinate: "assassinate",
	ActionSteal:       "steal",
	ActionExchange:    "exchange",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ACTION_%d", int(k))
}

// ParseActionKind resolves a wire-format action name.
func ParseActionKind(name string) (ActionKind, error) {
	for k, n := range actionNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

// Cost returns the coin cost charged at resolution time. Declaring an action
// never deducts coins; a cancelled action therefore costs nothing.
func (k ActionKind) Cost() int {
	switch k {
	case ActionCoup:
		return 7
	case ActionAssassinate:
		return 3
	default:
		return 0
	}
}

// NeedsTarget reports whether the action requires a target-selection step
// before any negotiation.
func (k ActionKind) NeedsTarget() bool {
	return k == ActionCoup || k == ActionAssassinate || k == ActionSteal
}

// Challengeable reports whether the action claims a character and may be
// challenged.
func (k ActionKind) Challengeable() bool {
	_, ok := k.RequiredCard()
	return ok
}

// RequiredCard returns the character the actor implicitly claims to hold.
func (k ActionKind) RequiredCard() (Character, bool) {
	switch k {
	case ActionTax:
		return Duke, true
	case ActionAssassinate:
		return Assassin, true
	case ActionSteal:
		return Captain, true
	case ActionExchange:
		return Ambassador, true
	default:
		return 0, false
	}
}

// BlockableBy returns the characters that may block the action, or an empty
// slice for unblockable actions.
func (k ActionKind) BlockableBy() []Character {
	switch k {
	case ActionForeignAid:
		return []Character{Duke}
	case ActionAssassinate:
		return []Character{Contessa}
	case ActionSteal:
		return []Character{Ambassador, Captain}
	default:
		return nil
	}
}

// BlockedByTargetOnly reports whether only the named target may block.
// Foreign aid targets nobody, so any alive opponent may block it.
func (k ActionKind) BlockedByTargetOnly() bool {
	return k == ActionAssassinate || k == ActionSteal
}

// canBlockWith reports whether card is in the allowed blocking set for k.
func (k ActionKind) canBlockWith(card Character) bool {
	for _, c := range k.BlockableBy() {
		if c == card {
			return true
		}
	}
	return false
}

// PendingAction is the single in-flight action negotiation for a match.
// At most one exists at a time; that mutual exclusion is the core invariant
// of the state machine.
type PendingAction struct {
	Actor        int // seat index of the declaring player
	Kind         ActionKind
	Target       int // seat index, -1 until selected
	BlockerID    string
	BlockingCard Character
	Blocked      bool
}

func newPendingAction(actor int, kind ActionKind) *PendingAction {
	return &PendingAction{Actor: actor, Kind: kind, Target: -1}
}

// clearBlock drops a failed block claim so the original action can resolve.
func (p *PendingAction) clearBlock() {
	p.BlockerID = ""
	p.Blocked = false
}
