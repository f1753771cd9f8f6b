package game

// Seat names a participant at match creation time.
type Seat struct {
	ID   string
	Name string
}

// Player is the per-seat mutable state of one participant.
type Player struct {
	ID            string
	Name          string
	Coins         int
	Influence     []Character
	RevealedCards []Character
	Alive         bool
}

// hasInfluence reports whether the player holds card face-down.
func (p *Player) hasInfluence(card Character) bool {
	for _, c := range p.Influence {
		if c == card {
			return true
		}
	}
	return false
}

// removeInfluence discards the first held copy of card and reports whether
// one was held.
func (p *Player) removeInfluence(card Character) bool {
	for i, c := range p.Influence {
		if c == card {
			p.Influence = append(p.Influence[:i], p.Influence[i+1:]...)
			return true
		}
	}
	return false
}

// removeInfluenceAt discards the card at index and returns it.
func (p *Player) removeInfluenceAt(index int) Character {
	card := p.Influence[index]
	p.Influence = append(p.Influence[:index], p.Influence[index+1:]...)
	return card
}
