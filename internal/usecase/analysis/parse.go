package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/notnil/chess"

	analysisdomain "github.com/dechiad1/chesster/internal/domain/analysis"
	"github.com/dechiad1/chesster/internal/errors"
)

var (
	pgnHeaderRe     = regexp.MustCompile(`\[.*?\]`)
	pgnCommentRe    = regexp.MustCompile(`\{[^}]*\}`)
	moveNumberRe    = regexp.MustCompile(`^\d+\.+$`)
	annotationRe    = regexp.MustCompile(`[!?]+$`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
	pgnResultTokens = map[string]bool{"1-0": true, "0-1": true, "1/2-1/2": true, "*": true}
)

// ParseGame turns raw PGN text into an immutable ParsedGame. A strict parse
// is tried first; hand-typed notation with stray annotations falls back to a
// lenient token walk.
func ParseGame(pgn string) (*analysisdomain.ParsedGame, error) {
	if strings.TrimSpace(pgn) == "" {
		return nil, fmt.Errorf("%w: empty input", errors.ErrInvalidGameNotation)
	}

	game, err := readPGN(pgn)
	if err != nil {
		game, err = readLoosePGN(pgn)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrInvalidGameNotation, err)
		}
	}

	moves := game.Moves()
	if len(moves) == 0 {
		return nil, fmt.Errorf("%w: game has no moves", errors.ErrInvalidGameNotation)
	}
	positions := game.Positions()

	records := make([]analysisdomain.MoveRecord, len(moves))
	for i, move := range moves {
		before := positions[i]
		color := "white"
		if i%2 == 1 {
			color = "black"
		}
		records[i] = analysisdomain.MoveRecord{
			Number:    i/2 + 1,
			Color:     color,
			SAN:       chess.AlgebraicNotation{}.Encode(before, move),
			UCI:       chess.UCINotation{}.Encode(before, move),
			FENBefore: before.String(),
			FENAfter:  positions[i+1].String(),
		}
	}

	return &analysisdomain.ParsedGame{
		White:   tagOr(game, "White", "Unknown"),
		Black:   tagOr(game, "Black", "Unknown"),
		Result:  tagOr(game, "Result", "*"),
		Opening: openingTag(game),
		Moves:   records,
	}, nil
}

func readPGN(pgn string) (*chess.Game, error) {
	pgnFn, err := chess.PGN(strings.NewReader(pgn))
	if err != nil {
		return nil, err
	}
	return chess.NewGame(pgnFn), nil
}

// readLoosePGN strips headers, comments and annotations and replays the
// remaining tokens one by one, accepting SAN with a UCI fallback.
func readLoosePGN(pgn string) (*chess.Game, error) {
	clean := pgnHeaderRe.ReplaceAllString(pgn, "")
	clean = pgnCommentRe.ReplaceAllString(clean, "")
	clean = whitespaceRe.ReplaceAllString(clean, " ")

	game := chess.NewGame()
	for _, token := range strings.Fields(clean) {
		if moveNumberRe.MatchString(token) {
			continue
		}
		if pgnResultTokens[token] {
			break
		}
		token = annotationRe.ReplaceAllString(token, "")
		if token == "" {
			continue
		}

		move, err := chess.AlgebraicNotation{}.Decode(game.Position(), token)
		if err != nil {
			move, err = chess.UCINotation{}.Decode(game.Position(), token)
			if err != nil {
				return nil, fmt.Errorf("unreadable move %q", token)
			}
		}
		if err := game.Move(move); err != nil {
			return nil, fmt.Errorf("illegal move %q", token)
		}
	}
	return game, nil
}

func tagOr(game *chess.Game, key, fallback string) string {
	if pair := game.GetTagPair(key); pair != nil && pair.Value != "" {
		return pair.Value
	}
	return fallback
}

func openingTag(game *chess.Game) string {
	if v := tagOr(game, "Opening", ""); v != "" {
		return v
	}
	if v := tagOr(game, "ECO", ""); v != "" {
		return v
	}
	return "Unknown"
}
