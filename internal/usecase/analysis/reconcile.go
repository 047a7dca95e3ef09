package analysis

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	analysisdomain "github.com/dechiad1/chesster/internal/domain/analysis"
)

const degradedSummaryLimit = 500

// Reconcile extracts a structured Result from a free-form model reply. The
// text between the first '{' and the last '}' is parsed as the expected JSON
// shape; anything unparseable degrades to a summary-only result with the raw
// reply preserved. A malformed reply is a degraded success, never an error.
func Reconcile(raw string) analysisdomain.Result {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		var res analysisdomain.Result
		if err := json.Unmarshal([]byte(raw[start:end+1]), &res); err == nil {
			return normalize(res)
		}
	}

	summary := raw
	if utf8.RuneCountInString(summary) > degradedSummaryLimit {
		summary = string([]rune(summary)[:degradedSummaryLimit])
	}
	return normalize(analysisdomain.Result{
		Summary:     summary,
		RawAnalysis: raw,
	})
}

// normalize keeps the list fields non-nil so serialized results always carry
// empty arrays instead of null.
func normalize(res analysisdomain.Result) analysisdomain.Result {
	if res.CriticalMoments == nil {
		res.CriticalMoments = []analysisdomain.CriticalMoment{}
	}
	if res.Mistakes == nil {
		res.Mistakes = []analysisdomain.MistakeDetail{}
	}
	if res.Blunders == nil {
		res.Blunders = []analysisdomain.MistakeDetail{}
	}
	if res.Recommendations == nil {
		res.Recommendations = []string{}
	}
	return res
}
