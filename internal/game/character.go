package game

import (
	"fmt"
	"math/rand"
)

// Character is one of the five court roles. Cards of the same character are
// interchangeable; the deck tracks counts, not identities.
type Character int

const (
	Duke Character = iota
	Assassin
	Captain
	Ambassador
	Contessa
)

const charactersPerRole = 3

var characterNames = map[Character]string{
	Duke:       "Duke",
	Assassin:   "Assassin",
	Captain:    "Captain",
	Ambassador: "Ambassador",
	Contessa:   "Contessa",
}

// AllCharacters lists every court role once, in canonical order.
var AllCharacters = []Character{Duke, Assassin, Captain, Ambassador, Contessa}

func (c Character) String() string {
	if name, ok := characterNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CHARACTER_%d", int(c))
}

// ParseCharacter resolves a wire-format character name.
func ParseCharacter(name string) (Character, error) {
	for c, n := range characterNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown character %q", name)
}

// characterNameList converts a card sequence to wire-format names.
func characterNameList(cards []Character) []string {
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.String()
	}
	return names
}

// Deck is the court deck: an unordered pool of role cards replenished by
// reshuffling. Not safe for concurrent use; the owning match serializes
// access.
type Deck struct {
	cards []Character
	rng   *rand.Rand
}

// NewCourtDeck builds a shuffled deck of three copies of each character.
func NewCourtDeck(rng *rand.Rand) *Deck {
	cards := make([]Character, 0, len(AllCharacters)*charactersPerRole)
	for _, c := range AllCharacters {
		for i := 0; i < charactersPerRole; i++ {
			cards = append(cards, c)
		}
	}
	d := &Deck{cards: cards, rng: rng}
	d.Shuffle()
	return d
}

// Len returns the number of cards remaining.
func (d *Deck) Len() int {
	return len(d.cards)
}

// Draw removes and returns one card.
func (d *Deck) Draw() (Character, error) {
	if len(d.cards) == 0 {
		return 0, ErrDeckEmpty
	}
	card := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return card, nil
}

// DrawN removes and returns n cards, failing without drawing any if fewer
// than n remain.
func (d *Deck) DrawN(n int) ([]Character, error) {
	if len(d.cards) < n {
		return nil, ErrDeckEmpty
	}
	drawn := make([]Character, 0, n)
	for i := 0; i < n; i++ {
		card, _ := d.Draw()
		drawn = append(drawn, card)
	}
	return drawn, nil
}

// Return adds cards back to the deck and reshuffles.
func (d *Deck) Return(cards ...Character) {
	d.cards = append(d.cards, cards...)
	d.Shuffle()
}

// Shuffle performs a uniform Fisher-Yates permutation.
func (d *Deck) Shuffle() {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.Intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}
