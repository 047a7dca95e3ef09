package analysis

import (
	"fmt"
	"strings"

	analysisdomain "github.com/dechiad1/chesster/internal/domain/analysis"
)

const analysisSystemPrompt = `You are an expert chess analyst providing detailed game analysis. Your task is to:

1. Identify the critical moments in the game (turning points, mistakes, blunders)
2. Explain why certain moves were mistakes and what would have been better
3. Highlight any tactical or strategic themes
4. Provide actionable recommendations for improvement

Focus on the most instructive moments rather than analyzing every move.
Be specific and educational in your explanations.

When providing analysis, format your response as JSON with the following structure:
{
    "summary": "Overall assessment of the game (2-3 sentences)",
    "critical_moments": [
        {"move_number": 15, "description": "The position changed dramatically after..."}
    ],
    "mistakes": [
        {"move_number": 23, "move": "Qxd4", "explanation": "This loses material because...", "better_move": "Nc6"}
    ],
    "blunders": [
        {"move_number": 31, "move": "Rxe4", "explanation": "This hangs the queen...", "better_move": "Qf3"}
    ],
    "recommendations": ["Work on endgame technique", "Study tactical patterns"]
}`

// BuildPrompt assembles the analysis request text: game header, the full
// move list grouped by move number and, when engine evaluations were
// supplied, the mistakes and blunders the engine flagged. Inaccuracies are
// left out to keep the prompt focused. Pure string assembly, no I/O.
func BuildPrompt(game *analysisdomain.ParsedGame, evals []analysisdomain.MoveEvaluation) string {
	var sB strings.Builder

	sB.WriteString("Please analyze the following chess game:\n\n")
	fmt.Fprintf(&sB, "White: %s\n", game.White)
	fmt.Fprintf(&sB, "Black: %s\n", game.Black)
	fmt.Fprintf(&sB, "Result: %s\n", game.Result)
	fmt.Fprintf(&sB, "Opening: %s\n\n", game.Opening)

	sB.WriteString("Moves:\n")
	sB.WriteString(formatMoveList(game.Moves))

	blunders := filterByClass(evals, analysisdomain.ClassificationBlunder)
	mistakes := filterByClass(evals, analysisdomain.ClassificationMistake)
	if len(blunders) > 0 || len(mistakes) > 0 {
		sB.WriteString("\n\nEngine-identified issues:")
		for _, b := range blunders {
			fmt.Fprintf(&sB, "\n- Move %d (%s): %s is a BLUNDER (lost %.0f centipawns, better was %s)",
				b.MoveNumber, titleColor(b.Color), b.Move, b.CentipawnLoss, b.BestMove)
		}
		for _, m := range mistakes {
			fmt.Fprintf(&sB, "\n- Move %d (%s): %s is a mistake (lost %.0f centipawns, better was %s)",
				m.MoveNumber, titleColor(m.Color), m.Move, m.CentipawnLoss, m.BestMove)
		}
	}

	sB.WriteString("\n\nPlease provide your analysis in the JSON format specified. ")
	sB.WriteString("Focus on the most instructive moments and provide clear explanations.")

	return sB.String()
}

func formatMoveList(moves []analysisdomain.MoveRecord) string {
	var parts []string
	for i := 0; i < len(moves); i += 2 {
		pair := fmt.Sprintf("%d. %s", moves[i].Number, moves[i].SAN)
		if i+1 < len(moves) {
			pair += " " + moves[i+1].SAN
		}
		parts = append(parts, pair)
	}
	return strings.Join(parts, " ")
}

func filterByClass(evals []analysisdomain.MoveEvaluation, class analysisdomain.Classification) []analysisdomain.MoveEvaluation {
	var out []analysisdomain.MoveEvaluation
	for _, ev := range evals {
		if ev.Classification == class {
			out = append(out, ev)
		}
	}
	return out
}

func titleColor(color string) string {
	if color == "" {
		return color
	}
	return strings.ToUpper(color[:1]) + color[1:]
}
