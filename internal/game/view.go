package game

// hiddenCard is the placeholder shown for another player's face-down cards.
const hiddenCard = "Hidden"

// PlayerView is one seat as seen by a specific viewer. Influence shows real
// card names only for the viewer's own seat.
type PlayerView struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Coins         int      `json:"coins"`
	Influence     []string `json:"influence"`
	RevealedCards []string `json:"revealedCards"`
	Alive         bool     `json:"isAlive"`
}

// MatchView is the redacted full-state snapshot broadcast after every
// mutation.
type MatchView struct {
	RoomCode      string       `json:"roomCode"`
	CurrentTurn   int          `json:"currentPlayer"`
	Treasury      int          `json:"treasury"`
	DeckCount     int          `json:"deckCount"`
	Players       []PlayerView `json:"players"`
	RevealedCards []string     `json:"revealedCards"`
	Ended         bool         `json:"gameEnded"`
	Log           []string     `json:"log"`
}

// viewFor projects the match state for one viewer. It is a pure projection:
// the match is never mutated, so redaction can't leak state by accident.
// Callers must hold the match lock.
func (m *Match) viewFor(viewerID string) MatchView {
	players := make([]PlayerView, len(m.players))
	for i, p := range m.players {
		influence := make([]string, len(p.Influence))
		if p.ID == viewerID {
			for j, c := range p.Influence {
				influence[j] = c.String()
			}
		} else {
			for j := range p.Influence {
				influence[j] = hiddenCard
			}
		}
		players[i] = PlayerView{
			ID:            p.ID,
			Name:          p.Name,
			Coins:         p.Coins,
			Influence:     influence,
			RevealedCards: characterNameList(p.RevealedCards),
			Alive:         p.Alive,
		}
	}

	return MatchView{
		RoomCode:      m.roomCode,
		CurrentTurn:   m.currentTurn,
		Treasury:      m.treasury,
		DeckCount:     m.deck.Len(),
		Players:       players,
		RevealedCards: characterNameList(m.revealedCards),
		Ended:         m.ended,
		Log:           append([]string(nil), m.log...),
	}
}
