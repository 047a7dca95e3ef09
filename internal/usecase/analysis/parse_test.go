package analysis

import (
	stderrors "errors"
	"testing"

	"github.com/dechiad1/chesster/internal/errors"
)

const scholarsMatePGN = `[Event "Casual Game"]
[White "Anderson"]
[Black "Bergstrom"]
[Result "1-0"]
[Opening "Scholar's Mate"]

1. e4 e5 2. Bc4 Nc6 3. Qh5 Nf6 4. Qxf7# 1-0`

func TestParseGame(t *testing.T) {
	game, err := ParseGame(scholarsMatePGN)
	if err != nil {
		t.Fatalf("ParseGame failed: %v", err)
	}

	if game.White != "Anderson" {
		t.Errorf("White = %q", game.White)
	}
	if game.Black != "Bergstrom" {
		t.Errorf("Black = %q", game.Black)
	}
	if game.Result != "1-0" {
		t.Errorf("Result = %q", game.Result)
	}
	if game.Opening != "Scholar's Mate" {
		t.Errorf("Opening = %q", game.Opening)
	}
	if len(game.Moves) != 7 {
		t.Fatalf("got %d moves, want 7", len(game.Moves))
	}

	first := game.Moves[0]
	if first.Number != 1 || first.Color != "white" || first.SAN != "e4" || first.UCI != "e2e4" {
		t.Errorf("unexpected first move: %+v", first)
	}
	if first.FENBefore != "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1" {
		t.Errorf("unexpected FEN before first move: %q", first.FENBefore)
	}

	last := game.Moves[6]
	if last.Number != 4 || last.Color != "white" || last.SAN != "Qxf7#" {
		t.Errorf("unexpected last move: %+v", last)
	}
}

func TestParseGameBareMoves(t *testing.T) {
	game, err := ParseGame("1. d4 d5 2. c4 e6")
	if err != nil {
		t.Fatalf("ParseGame failed: %v", err)
	}
	if len(game.Moves) != 4 {
		t.Errorf("got %d moves, want 4", len(game.Moves))
	}
	if game.White != "Unknown" || game.Opening != "Unknown" {
		t.Errorf("missing tags should fall back: white=%q opening=%q", game.White, game.Opening)
	}
}

func TestParseGameLooseFallback(t *testing.T) {
	// Annotation glyphs after moves trip the strict reader.
	game, err := ParseGame("1. e4 e5 2. Nf3?! Nc6 3. Bb5!? a6")
	if err != nil {
		t.Fatalf("ParseGame failed: %v", err)
	}
	if len(game.Moves) != 6 {
		t.Errorf("got %d moves, want 6", len(game.Moves))
	}
	if game.Moves[2].SAN != "Nf3" {
		t.Errorf("annotation should be stripped, got %q", game.Moves[2].SAN)
	}
}

func TestParseGameECOFallback(t *testing.T) {
	game, err := ParseGame("[ECO \"B20\"]\n\n1. e4 c5")
	if err != nil {
		t.Fatalf("ParseGame failed: %v", err)
	}
	if game.Opening != "B20" {
		t.Errorf("Opening = %q, want B20", game.Opening)
	}
}

func TestParseGameInvalid(t *testing.T) {
	cases := []struct {
		name string
		pgn  string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t"},
		{"gibberish", "this is not a chess game"},
		{"illegal move", "1. e4 e5 2. Ke2 Ke7 3. Qxd8"},
		{"no moves", "[White \"A\"]\n[Black \"B\"]\n\n*"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseGame(tc.pgn)
			if err == nil {
				t.Fatal("expected error")
			}
			if !stderrors.Is(err, errors.ErrInvalidGameNotation) {
				t.Errorf("error %v should wrap ErrInvalidGameNotation", err)
			}
		})
	}
}
