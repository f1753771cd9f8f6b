package game

import (
	"errors"
	"math/rand"
	"testing"
)

func TestParseCharacter(t *testing.T) {
	tests := []struct {
		name    string
		want    Character
		wantErr bool
	}{
		{name: "Duke", want: Duke},
		{name: "Assassin", want: Assassin},
		{name: "Captain", want: Captain},
		{name: "Ambassador", want: Ambassador},
		{name: "Contessa", want: Contessa},
		{name: "duke", wantErr: true},
		{name: "", wantErr: true},
		{name: "Jester", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseCharacter(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseCharacter(%q) expected error, got %v", tt.name, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCharacter(%q) unexpected error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCharacter(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNewCourtDeckComposition(t *testing.T) {
	deck := NewCourtDeck(rand.New(rand.NewSource(7)))

	if deck.Len() != 15 {
		t.Fatalf("deck size = %d, want 15", deck.Len())
	}

	counts := make(map[Character]int)
	for deck.Len() > 0 {
		card, err := deck.Draw()
		if err != nil {
			t.Fatalf("Draw failed: %v", err)
		}
		counts[card]++
	}
	for _, c := range AllCharacters {
		if counts[c] != charactersPerRole {
			t.Errorf("count of %s = %d, want %d", c, counts[c], charactersPerRole)
		}
	}
}

func TestDeckDrawEmpty(t *testing.T) {
	deck := &Deck{rng: rand.New(rand.NewSource(7))}

	if _, err := deck.Draw(); !errors.Is(err, ErrDeckEmpty) {
		t.Errorf("Draw on empty deck: got %v, want ErrDeckEmpty", err)
	}
}

func TestDeckDrawNFailsWithoutDrawing(t *testing.T) {
	deck := &Deck{cards: []Character{Duke}, rng: rand.New(rand.NewSource(7))}

	if _, err := deck.DrawN(2); !errors.Is(err, ErrDeckEmpty) {
		t.Fatalf("DrawN(2): got %v, want ErrDeckEmpty", err)
	}
	if deck.Len() != 1 {
		t.Errorf("failed DrawN consumed cards: len = %d, want 1", deck.Len())
	}
}

func TestDeckReturnPreservesMultiset(t *testing.T) {
	deck := NewCourtDeck(rand.New(rand.NewSource(7)))
	drawn, err := deck.DrawN(5)
	if err != nil {
		t.Fatalf("DrawN failed: %v", err)
	}

	deck.Return(drawn...)
	if deck.Len() != 15 {
		t.Errorf("deck size after Return = %d, want 15", deck.Len())
	}
}
