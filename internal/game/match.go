package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// MinPlayers and MaxPlayers bound the seat count at match start.
	MinPlayers = 2
	MaxPlayers = 6

	// startingTreasury is the shared bank before dealing coins.
	startingTreasury = 50

	// logFeedLimit caps the public event feed at the most recent entries.
	logFeedLimit = 50
)

// resumePoint names the step to run once a suspended influence loss
// completes. Suspension is data plus a live clock, never a stored closure,
// so the match can be inspected and torn down deterministically.
type resumePoint int

const (
	resumeNone resumePoint = iota
	// resumeEndTurn clears the pending action and advances the turn.
	resumeEndTurn
	// resumeBlockStands cycles the blocker's revealed card through the deck,
	// then cancels the action: the block survived its challenge.
	resumeBlockStands
	// resumeResolveUnblocked drops the failed block claim and resolves the
	// original action.
	resumeResolveUnblocked
	// resumeActionProven cycles the actor's revealed card through the deck,
	// then resolves the action: the challenge against it failed.
	resumeActionProven
)

// responsePhase tracks one open challenge/block window. The same shape
// serves both the action phase and the block-challenge phase; only the
// eligible sets differ.
type responsePhase struct {
	kind              string // "action" or "block"
	challengeEligible map[string]bool
	blockEligible     map[string]bool
}

// Match is the authoritative state machine for one game. All mutating verbs
// are serialized under one mutex; clock callbacks re-enter through the same
// lock, so no two verbs ever interleave mid-mutation.
type Match struct {
	mu sync.Mutex

	roomCode string
	logger   *zap.Logger
	sink     Sink
	sched    Scheduler
	rng      *rand.Rand
	recorder ResultRecorder

	players       []*Player
	deck          *Deck
	treasury      int
	currentTurn   int
	pending       *PendingAction
	phase         *responsePhase
	pendingLoss   *pendingLoss
	exchangeCards []Character
	revealedCards []Character
	log           []string
	ended         bool
	started       bool

	turnTask      Task
	turnGen       uint64
	turnRemaining time.Duration
	responseTask  Task
	responseGen   uint64
}

// pendingLoss is the stored continuation of a suspended influence loss.
// At most one may be outstanding per match.
type pendingLoss struct {
	playerID string
	resume   resumePoint
}

// NewMatch creates a match for the given seats. The sink receives every
// outbound event; the scheduler drives both clocks.
func NewMatch(roomCode string, seats []Seat, sink Sink, sched Scheduler, rng *rand.Rand, logger *zap.Logger) (*Match, error) {
	if len(seats) < MinPlayers || len(seats) > MaxPlayers {
		return nil, fmt.Errorf("need %d-%d players, got %d", MinPlayers, MaxPlayers, len(seats))
	}

	players := make([]*Player, len(seats))
	for i, seat := range seats {
		players[i] = &Player{ID: seat.ID, Name: seat.Name, Alive: true}
	}

	return &Match{
		roomCode: roomCode,
		logger:   logger,
		sink:     sink,
		sched:    sched,
		rng:      rng,
		players:  players,
		treasury: startingTreasury,
	}, nil
}

// SetResultRecorder wires an optional archive for finished matches.
func (m *Match) SetResultRecorder(r ResultRecorder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorder = r
}

// Start deals influence and coins, announces the match, and opens the first
// turn.
func (m *Match) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return fmt.Errorf("match already started")
	}
	m.started = true

	m.deck = NewCourtDeck(m.rng)
	for i, p := range m.players {
		cards, err := m.deck.DrawN(2)
		if err != nil {
			return fmt.Errorf("dealing influence: %w", err)
		}
		p.Influence = cards
		// The first seat of a two-player match opens one coin short to
		// offset its first-mover advantage.
		p.Coins = 2
		if i == 0 && len(m.players) == 2 {
			p.Coins = 1
		}
		m.treasury -= p.Coins
	}
	m.currentTurn = 0

	for _, p := range m.players {
		m.sink.SendTo(p.ID, Event{Type: EventMatchStarted, Payload: m.viewFor(p.ID)})
	}
	m.startTurnClockLocked()
	m.broadcastStateLocked()
	m.broadcastLogLocked("Game started!")

	m.logger.Info("match started",
		zap.String("room_code", m.roomCode),
		zap.Int("players", len(m.players)),
	)
	return nil
}

// DeclareAction begins a turn with the given verb.
func (m *Match) DeclareAction(playerID string, kind ActionKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.declareActionLocked(playerID, kind)
}

func (m *Match) declareActionLocked(playerID string, kind ActionKind) error {
	if m.ended {
		return ErrMatchEnded
	}
	actor := m.players[m.currentTurn]
	if actor.ID != playerID || !actor.Alive {
		return ErrNotYourTurn
	}
	if m.pending != nil {
		return ErrNotYourTurn
	}
	if actor.Coins >= 10 && kind != ActionCoup {
		return ErrMustCoup
	}
	if actor.Coins < kind.Cost() {
		return ErrInsufficientFunds
	}

	// Target availability is checked before any side effect so a rejected
	// declaration touches neither the log nor the turn clock.
	var targets []TargetOption
	if kind.NeedsTarget() {
		if targets = m.validTargetsLocked(actor.ID); len(targets) == 0 {
			return ErrInvalidTarget
		}
	}

	m.clearTurnClockLocked()
	m.pending = newPendingAction(m.currentTurn, kind)
	m.broadcastLogLocked(fmt.Sprintf("%s attempts %s", actor.Name, kind))

	if kind.NeedsTarget() {
		m.sink.SendTo(actor.ID, Event{Type: EventActionPrompt, Payload: TargetPrompt{
			Prompt:       PromptSelectTarget,
			Action:       kind.String(),
			ValidTargets: targets,
		}})
		return nil
	}

	if kind.Challengeable() || len(kind.BlockableBy()) > 0 {
		m.startChallengePhaseLocked()
		return nil
	}

	m.resolveActionLocked()
	return nil
}

// SelectTarget completes the target-selection step of coup/assassinate/steal.
func (m *Match) SelectTarget(playerID, targetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ended {
		return ErrMatchEnded
	}
	if m.pending == nil || m.pending.Actor != m.currentTurn || m.pending.Target != -1 {
		return ErrNoPendingAction
	}
	if m.players[m.pending.Actor].ID != playerID {
		return ErrNotYourTurn
	}

	targetIndex := m.seatIndexLocked(targetID)
	if targetIndex == -1 || !m.players[targetIndex].Alive || targetIndex == m.pending.Actor {
		return ErrInvalidTarget
	}
	m.pending.Target = targetIndex

	if m.pending.Kind == ActionAssassinate || m.pending.Kind == ActionSteal {
		m.startChallengePhaseLocked()
	} else {
		m.resolveActionLocked()
	}
	return nil
}

// Challenge disputes the character claim behind the pending action, or
// behind its block when one is in effect.
func (m *Match) Challenge(challengerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ended {
		return ErrMatchEnded
	}
	if m.pending == nil || m.phase == nil {
		return ErrNoPendingAction
	}
	if !m.phase.challengeEligible[challengerID] {
		return ErrNotYourTurn
	}
	challenger := m.playerByIDLocked(challengerID)
	if challenger == nil || !challenger.Alive {
		return ErrNotYourTurn
	}

	m.clearResponseClockLocked()
	m.phase = nil
	m.sink.Broadcast(Event{Type: EventHideWaiting})

	if m.pending.Blocked {
		m.resolveBlockChallengeLocked(challenger)
	} else {
		m.resolveActionChallengeLocked(challenger)
	}
	return nil
}

func (m *Match) resolveActionChallengeLocked(challenger *Player) {
	actor := m.players[m.pending.Actor]
	required, _ := m.pending.Kind.RequiredCard()
	m.broadcastLogLocked(fmt.Sprintf("%s challenges %s's %s", challenger.Name, actor.Name, m.pending.Kind))

	if actor.hasInfluence(required) {
		m.broadcastLogLocked(fmt.Sprintf("%s reveals %s and wins the challenge!", actor.Name, required))
		m.beginInfluenceLossLocked(challenger.ID, resumeActionProven)
	} else {
		m.broadcastLogLocked(fmt.Sprintf("%s cannot show %s and loses the challenge!", actor.Name, required))
		m.beginInfluenceLossLocked(actor.ID, resumeEndTurn)
	}
}

func (m *Match) resolveBlockChallengeLocked(challenger *Player) {
	blocker := m.playerByIDLocked(m.pending.BlockerID)
	card := m.pending.BlockingCard
	m.broadcastLogLocked(fmt.Sprintf("%s challenges %s's block (%s)", challenger.Name, blocker.Name, card))

	if blocker.hasInfluence(card) {
		m.broadcastLogLocked(fmt.Sprintf("%s reveals %s and wins the challenge!", blocker.Name, card))
		m.beginInfluenceLossLocked(challenger.ID, resumeBlockStands)
	} else {
		m.broadcastLogLocked(fmt.Sprintf("%s cannot show %s and loses the challenge!", blocker.Name, card))
		m.beginInfluenceLossLocked(blocker.ID, resumeResolveUnblocked)
	}
}

// Block claims a counter-card against the pending action and opens the
// nested challenge window on that claim.
func (m *Match) Block(blockerID string, card Character) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ended {
		return ErrMatchEnded
	}
	if m.pending == nil || m.phase == nil || m.pending.Blocked {
		return ErrNoPendingAction
	}
	if !m.phase.blockEligible[blockerID] {
		return ErrNotYourTurn
	}
	if !m.pending.Kind.canBlockWith(card) {
		return ErrInvalidBlockCard
	}
	blocker := m.playerByIDLocked(blockerID)
	if blocker == nil || !blocker.Alive {
		return ErrNotYourTurn
	}

	m.clearResponseClockLocked()
	m.sink.Broadcast(Event{Type: EventHideWaiting})
	m.broadcastLogLocked(fmt.Sprintf("%s attempts to block with %s", blocker.Name, card))

	m.pending.BlockerID = blockerID
	m.pending.BlockingCard = card
	m.pending.Blocked = true

	m.startBlockChallengePhaseLocked()
	return nil
}

// Allow waives the current challenge window. With a block in effect the
// action is cancelled; otherwise it resolves. Clock expiry calls this with
// no submitting player.
func (m *Match) Allow(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ended {
		return ErrMatchEnded
	}
	if m.pending == nil || m.phase == nil {
		return ErrNoPendingAction
	}
	m.allowLocked()
	return nil
}

func (m *Match) allowLocked() {
	m.clearResponseClockLocked()
	m.phase = nil
	m.sink.Broadcast(Event{Type: EventHideWaiting})

	if m.pending != nil && m.pending.Blocked {
		m.broadcastLogLocked(fmt.Sprintf("Block successful! %s is blocked.", m.pending.Kind))
		m.pending = nil
		m.nextTurnLocked()
		return
	}
	m.resolveActionLocked()
}

// SelectKeptCards completes an exchange: the actor keeps the chosen cards
// and the rest return to the deck.
func (m *Match) SelectKeptCards(playerID string, indices []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ended {
		return ErrMatchEnded
	}
	if m.pending == nil || m.pending.Kind != ActionExchange || m.exchangeCards == nil {
		return ErrNoPendingAction
	}
	actor := m.players[m.pending.Actor]
	if actor.ID != playerID {
		return ErrNotYourTurn
	}

	keepCount := len(actor.Influence)
	if len(indices) != keepCount {
		return ErrInvalidCardSelection
	}
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(m.exchangeCards) || seen[idx] {
			return ErrInvalidCardSelection
		}
		seen[idx] = true
	}

	kept := make([]Character, 0, keepCount)
	returned := make([]Character, 0, len(m.exchangeCards)-keepCount)
	for i, card := range m.exchangeCards {
		if seen[i] {
			kept = append(kept, card)
		} else {
			returned = append(returned, card)
		}
	}
	actor.Influence = kept
	m.deck.Return(returned...)
	m.exchangeCards = nil

	m.broadcastLogLocked(fmt.Sprintf("%s exchanges cards with the Court", actor.Name))
	m.pending = nil
	m.nextTurnLocked()
	return nil
}

// LoseInfluence answers a pending influence-loss prompt.
func (m *Match) LoseInfluence(playerID string, cardIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ended {
		return ErrMatchEnded
	}
	if m.pendingLoss == nil || m.pendingLoss.playerID != playerID {
		return ErrInvalidCardSelection
	}
	player := m.playerByIDLocked(playerID)
	if player == nil || cardIndex < 0 || cardIndex >= len(player.Influence) {
		return ErrInvalidCardSelection
	}

	loss := m.pendingLoss
	m.pendingLoss = nil

	lost := player.removeInfluenceAt(cardIndex)
	m.recordRevealLocked(player, lost)
	m.broadcastLogLocked(fmt.Sprintf("%s loses %s", player.Name, lost))
	if len(player.Influence) == 0 {
		m.exilePlayerLocked(player)
	}

	if m.checkGameEndLocked() {
		return nil
	}
	m.broadcastStateLocked()
	m.runResumeLocked(loss.resume)
	return nil
}

// beginInfluenceLossLocked makes playerID discard one influence card, then
// runs the resume point. A single-card hand is auto-selected; a two-card
// hand suspends the match with a stored resume point until LoseInfluence.
func (m *Match) beginInfluenceLossLocked(playerID string, resume resumePoint) {
	player := m.playerByIDLocked(playerID)
	if player == nil || !player.Alive || len(player.Influence) == 0 {
		m.runResumeLocked(resume)
		return
	}

	if len(player.Influence) == 1 {
		lost := player.removeInfluenceAt(0)
		m.recordRevealLocked(player, lost)
		m.broadcastLogLocked(fmt.Sprintf("%s loses %s and is exiled!", player.Name, lost))
		m.exilePlayerLocked(player)
		m.broadcastStateLocked()
		if m.checkGameEndLocked() {
			return
		}
		m.runResumeLocked(resume)
		return
	}

	m.sink.SendTo(playerID, Event{Type: EventActionPrompt, Payload: InfluenceLossPrompt{
		Prompt: PromptLoseInfluence,
		Cards:  characterNameList(player.Influence),
	}})
	m.pendingLoss = &pendingLoss{playerID: playerID, resume: resume}
}

func (m *Match) recordRevealLocked(player *Player, card Character) {
	player.RevealedCards = append(player.RevealedCards, card)
	m.revealedCards = append(m.revealedCards, card)
}

func (m *Match) exilePlayerLocked(player *Player) {
	player.Alive = false
	m.treasury += player.Coins
	player.Coins = 0
	m.broadcastLogLocked(fmt.Sprintf("%s is exiled!", player.Name))
}

// runResumeLocked executes the step saved across an influence loss.
func (m *Match) runResumeLocked(resume resumePoint) {
	if m.ended {
		return
	}
	switch resume {
	case resumeEndTurn:
		m.pending = nil
		m.nextTurnLocked()
	case resumeBlockStands:
		if m.pending != nil {
			blocker := m.playerByIDLocked(m.pending.BlockerID)
			if blocker != nil {
				m.cycleCardLocked(blocker, m.pending.BlockingCard)
			}
			m.broadcastLogLocked(fmt.Sprintf("Block successful! %s is blocked.", m.pending.Kind))
		}
		m.pending = nil
		m.nextTurnLocked()
	case resumeResolveUnblocked:
		if m.pending != nil {
			m.pending.clearBlock()
		}
		m.resolveActionLocked()
	case resumeActionProven:
		if m.pending != nil {
			actor := m.players[m.pending.Actor]
			if required, ok := m.pending.Kind.RequiredCard(); ok {
				m.cycleCardLocked(actor, required)
			}
		}
		m.resolveActionLocked()
	}
}

// cycleCardLocked returns a revealed-but-safe card to the deck, reshuffles,
// and draws a replacement so the holder keeps their hand size. The draw can
// only fail if the deck was already empty, in which case the holder simply
// plays on one card short.
func (m *Match) cycleCardLocked(player *Player, card Character) {
	if !player.removeInfluence(card) {
		return
	}
	m.deck.Return(card)
	replacement, err := m.deck.Draw()
	if err != nil {
		return
	}
	player.Influence = append(player.Influence, replacement)
}

// startChallengePhaseLocked opens the challenge/block window for the
// pending action and arms the response clock.
func (m *Match) startChallengePhaseLocked() {
	kind := m.pending.Kind
	actorID := m.players[m.pending.Actor].ID

	phase := &responsePhase{
		kind:              "action",
		challengeEligible: make(map[string]bool),
		blockEligible:     make(map[string]bool),
	}

	blockOptions := kind.BlockableBy()
	var blockerID string
	if kind.BlockedByTargetOnly() && m.pending.Target != -1 {
		blockerID = m.players[m.pending.Target].ID
	}

	for _, p := range m.players {
		if !p.Alive || p.ID == actorID {
			continue
		}
		canChallenge := kind.Challengeable()
		canBlock := len(blockOptions) > 0 && (blockerID == "" || blockerID == p.ID)
		// Actions naming a single potential blocker narrow the whole
		// response window to that player.
		if blockerID != "" && blockerID != p.ID {
			canChallenge = false
		}
		if canChallenge {
			phase.challengeEligible[p.ID] = true
		}
		if canBlock {
			phase.blockEligible[p.ID] = true
		}
		if !canChallenge && !canBlock {
			continue
		}
		m.sink.SendTo(p.ID, Event{Type: EventActionPrompt, Payload: ChallengePrompt{
			Prompt:       PromptChallenge,
			Action:       kind.String(),
			Phase:        "action",
			CanChallenge: canChallenge,
			CanBlock:     canBlock,
			BlockOptions: characterNameList(blockOptions),
		}})
	}

	m.sink.SendTo(actorID, Event{Type: EventWaiting, Payload: WaitingNotice{
		Action:  kind.String(),
		Message: fmt.Sprintf("Waiting for other players to respond to your %s...", kind),
	}})

	m.phase = phase
	m.startResponseClockLocked()
}

// startBlockChallengePhaseLocked opens the nested window on a block claim.
// Everyone alive except the blocker may challenge; the actor is included.
func (m *Match) startBlockChallengePhaseLocked() {
	blocker := m.playerByIDLocked(m.pending.BlockerID)
	card := m.pending.BlockingCard

	phase := &responsePhase{
		kind:              "block",
		challengeEligible: make(map[string]bool),
		blockEligible:     make(map[string]bool),
	}

	for _, p := range m.players {
		if !p.Alive {
			continue
		}
		if p.ID == blocker.ID {
			m.sink.SendTo(p.ID, Event{Type: EventWaiting, Payload: WaitingNotice{
				Action:  "blockChallenge",
				Message: fmt.Sprintf("Waiting for response to your %s block...", card),
			}})
			continue
		}
		phase.challengeEligible[p.ID] = true
		m.sink.SendTo(p.ID, Event{Type: EventActionPrompt, Payload: ChallengePrompt{
			Prompt:       PromptChallenge,
			Action:       "blockChallenge",
			Phase:        "block",
			CanChallenge: true,
			Blocker:      blocker.Name,
			BlockingCard: card.String(),
		}})
	}

	m.phase = phase
	m.startResponseClockLocked()
}

// resolveActionLocked applies the pending action's effect, exactly once.
func (m *Match) resolveActionLocked() {
	if m.pending == nil || m.ended {
		return
	}
	m.phase = nil

	action := m.pending
	actor := m.players[action.Actor]

	switch action.Kind {
	case ActionIncome:
		actor.Coins++
		m.drainTreasuryLocked(1)
		m.broadcastLogLocked(fmt.Sprintf("%s takes 1 coin (Income)", actor.Name))

	case ActionForeignAid:
		actor.Coins += 2
		m.drainTreasuryLocked(2)
		m.broadcastLogLocked(fmt.Sprintf("%s takes 2 coins (Foreign Aid)", actor.Name))

	case ActionTax:
		actor.Coins += 3
		m.drainTreasuryLocked(3)
		m.broadcastLogLocked(fmt.Sprintf("%s takes 3 coins (Tax - Duke)", actor.Name))

	case ActionCoup:
		actor.Coins -= 7
		m.treasury += 7
		target := m.players[action.Target]
		m.broadcastLogLocked(fmt.Sprintf("%s launches coup against %s", actor.Name, target.Name))
		m.beginInfluenceLossLocked(target.ID, resumeEndTurn)
		return

	case ActionAssassinate:
		actor.Coins -= 3
		m.treasury += 3
		target := m.players[action.Target]
		m.broadcastLogLocked(fmt.Sprintf("%s assassinates %s", actor.Name, target.Name))
		m.beginInfluenceLossLocked(target.ID, resumeEndTurn)
		return

	case ActionSteal:
		target := m.players[action.Target]
		stolen := min(2, target.Coins)
		actor.Coins += stolen
		target.Coins -= stolen
		m.broadcastLogLocked(fmt.Sprintf("%s steals %d coins from %s", actor.Name, stolen, target.Name))

	case ActionExchange:
		if m.deck.Len() < 2 {
			m.broadcastLogLocked("Not enough cards in deck for exchange")
			break
		}
		drawn, _ := m.deck.DrawN(2)
		m.exchangeCards = append(append([]Character{}, actor.Influence...), drawn...)
		m.sink.SendTo(actor.ID, Event{Type: EventActionPrompt, Payload: CardSelectionPrompt{
			Prompt:    PromptSelectCards,
			Cards:     characterNameList(m.exchangeCards),
			KeepCount: len(actor.Influence),
		}})
		return
	}

	m.pending = nil
	m.nextTurnLocked()
}

// drainTreasuryLocked removes coins from the bank, flooring at zero.
func (m *Match) drainTreasuryLocked(n int) {
	m.treasury -= n
	if m.treasury < 0 {
		m.treasury = 0
	}
}

// nextTurnLocked advances to the next alive seat and restarts the turn
// clock. checkGameEndLocked guarantees at least one alive seat remains.
func (m *Match) nextTurnLocked() {
	if m.ended {
		return
	}
	for {
		m.currentTurn = (m.currentTurn + 1) % len(m.players)
		if m.players[m.currentTurn].Alive {
			break
		}
	}
	m.startTurnClockLocked()
	m.broadcastStateLocked()
}

// checkGameEndLocked finishes the match once at most one seat survives.
func (m *Match) checkGameEndLocked() bool {
	var alive []*Player
	for _, p := range m.players {
		if p.Alive {
			alive = append(alive, p)
		}
	}
	if len(alive) > 1 {
		return false
	}

	m.ended = true
	var winner *TargetOption
	if len(alive) == 1 {
		winner = &TargetOption{ID: alive[0].ID, Name: alive[0].Name}
		m.broadcastLogLocked(fmt.Sprintf("%s wins the game!", alive[0].Name))
	} else {
		m.broadcastLogLocked("Game ended with no survivors!")
	}
	m.sink.Broadcast(Event{Type: EventMatchEnded, Payload: MatchEndedNotice{Winner: winner}})

	m.logger.Info("match ended",
		zap.String("room_code", m.roomCode),
		zap.String("winner", winnerID(winner)),
	)

	if m.recorder != nil {
		result := MatchResult{
			RoomCode:    m.roomCode,
			PlayerCount: len(m.players),
			FinishedAt:  time.Now(),
		}
		if winner != nil {
			result.WinnerID = winner.ID
			result.WinnerName = winner.Name
		}
		recorder := m.recorder
		logger := m.logger
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := recorder.RecordResult(ctx, result); err != nil {
				logger.Warn("failed to archive match result",
					zap.String("room_code", result.RoomCode),
					zap.Error(err),
				)
			}
		}()
	}

	m.teardownLocked()
	return true
}

func winnerID(w *TargetOption) string {
	if w == nil {
		return ""
	}
	return w.ID
}

// HandleDisconnect exiles a departing player mid-match and unsticks any
// phase that was waiting on them, so the match can never stall on a seat
// that will not answer.
func (m *Match) HandleDisconnect(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ended {
		return
	}
	seat := m.seatIndexLocked(playerID)
	if seat == -1 || !m.players[seat].Alive {
		return
	}

	player := m.players[seat]
	player.Alive = false
	m.treasury += player.Coins
	player.Coins = 0
	m.broadcastLogLocked(fmt.Sprintf("%s disconnected and is eliminated", player.Name))

	if m.checkGameEndLocked() {
		return
	}

	// A suspended influence loss waiting on the departed player resolves as
	// if they had no cards left.
	if m.pendingLoss != nil && m.pendingLoss.playerID == playerID {
		loss := m.pendingLoss
		m.pendingLoss = nil
		m.broadcastStateLocked()
		m.runResumeLocked(loss.resume)
		return
	}

	// An open response window with nobody left to answer counts as allow.
	if m.phase != nil {
		delete(m.phase.challengeEligible, playerID)
		delete(m.phase.blockEligible, playerID)
		if len(m.phase.challengeEligible) == 0 && len(m.phase.blockEligible) == 0 {
			m.allowLocked()
			return
		}
	}

	if m.pending != nil && m.pending.Actor == seat {
		m.clearResponseClockLocked()
		m.phase = nil
		m.pending = nil
		if m.exchangeCards != nil {
			// Only the held-out draws go back to the deck; the rest of the
			// selection pool is the actor's own hand.
			m.deck.Return(m.exchangeCards[len(player.Influence):]...)
			m.exchangeCards = nil
		}
		m.nextTurnLocked()
		return
	}

	if m.currentTurn == seat {
		m.nextTurnLocked()
		return
	}
	m.broadcastStateLocked()
}

// Teardown cancels both clocks and drops any stored continuation. Called
// when the room disbands before the match finishes on its own.
func (m *Match) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
}

func (m *Match) teardownLocked() {
	m.clearTurnClockLocked()
	m.clearResponseClockLocked()
	m.pendingLoss = nil
	m.exchangeCards = nil
	m.phase = nil
	m.pending = nil
}

// Ended reports whether the match has finished.
func (m *Match) Ended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ended
}

// View returns the redacted state snapshot for one viewer.
func (m *Match) View(viewerID string) MatchView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewFor(viewerID)
}

// ---- clocks ----

func (m *Match) startTurnClockLocked() {
	m.clearTurnClockLocked()
	m.turnRemaining = turnTimeLimit
	gen := m.turnGen
	m.scheduleTurnTickLocked(gen)
}

func (m *Match) scheduleTurnTickLocked(gen uint64) {
	m.turnTask = m.sched.Schedule(clockTick, func() { m.turnTick(gen) })
}

func (m *Match) turnTick(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.turnGen || m.ended {
		return
	}
	m.turnRemaining -= clockTick
	m.sink.Broadcast(Event{Type: EventTurnClock, Payload: TurnClockUpdate{
		MillisRemaining: m.turnRemaining.Milliseconds(),
	}})
	if m.turnRemaining > 0 {
		m.scheduleTurnTickLocked(gen)
		return
	}

	m.clearTurnClockLocked()
	m.forceIncomeLocked()
}

// forceIncomeLocked takes income for the current player when their turn
// clock runs out. It skips the declaration checks, including the mandatory
// coup at ten coins: a coup needs a target the timed-out player will never
// pick, while income always completes synchronously.
func (m *Match) forceIncomeLocked() {
	actor := m.players[m.currentTurn]
	m.pending = newPendingAction(m.currentTurn, ActionIncome)
	m.broadcastLogLocked(fmt.Sprintf("%s attempts %s", actor.Name, ActionIncome))
	m.resolveActionLocked()
}

func (m *Match) clearTurnClockLocked() {
	if m.turnTask != nil {
		m.turnTask.Stop()
		m.turnTask = nil
	}
	m.turnGen++
}

func (m *Match) startResponseClockLocked() {
	m.clearResponseClockLocked()
	gen := m.responseGen
	m.responseTask = m.sched.Schedule(responseTimeLimit, func() { m.responseExpire(gen) })
}

func (m *Match) responseExpire(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.responseGen || m.ended {
		return
	}
	if m.pending == nil || m.phase == nil {
		return
	}
	m.allowLocked()
}

func (m *Match) clearResponseClockLocked() {
	if m.responseTask != nil {
		m.responseTask.Stop()
		m.responseTask = nil
	}
	m.responseGen++
}

// ---- helpers ----

func (m *Match) seatIndexLocked(playerID string) int {
	for i, p := range m.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (m *Match) playerByIDLocked(playerID string) *Player {
	if i := m.seatIndexLocked(playerID); i != -1 {
		return m.players[i]
	}
	return nil
}

func (m *Match) validTargetsLocked(actorID string) []TargetOption {
	var targets []TargetOption
	for _, p := range m.players {
		if p.Alive && p.ID != actorID {
			targets = append(targets, TargetOption{ID: p.ID, Name: p.Name})
		}
	}
	return targets
}

func (m *Match) broadcastStateLocked() {
	for _, p := range m.players {
		m.sink.SendTo(p.ID, Event{Type: EventStateUpdated, Payload: m.viewFor(p.ID)})
	}
}

func (m *Match) broadcastLogLocked(message string) {
	m.log = append(m.log, message)
	if len(m.log) > logFeedLimit {
		m.log = m.log[len(m.log)-logFeedLimit:]
	}
	m.sink.Broadcast(Event{Type: EventLog, Payload: LogMessage{Message: message}})
}
