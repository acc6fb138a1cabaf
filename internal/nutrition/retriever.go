package nutrition

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
)

// FDC nutrient numbers.
const (
	EnergyNutrient       = "208"
	ProteinNutrient      = "203"
	FatNutrient          = "204"
	CarbohydrateNutrient = "205"
)

// Record is the nutrition data for one matched food. A nil value means the
// database did not report that nutrient.
type Record struct {
	Name          string   `json:"name"`
	EnergyKcal    *float64 `json:"energy_kcal"`
	ProteinG      *float64 `json:"protein_g"`
	FatG          *float64 `json:"fat_g"`
	CarbohydrateG *float64 `json:"carbohydrate_g"`
}

type Searcher interface {
	Configured() bool
	Search(ctx context.Context, query string) ([]SearchFood, error)
}

type Retriever struct {
	searcher Searcher
}

func NewRetriever(searcher Searcher) *Retriever {
	return &Retriever{searcher: searcher}
}

// Retrieve tries each candidate in order and returns the first result that
// passes the match check. Lookup failures are logged and treated as a miss for
// that candidate; Retrieve itself never fails.
func (r *Retriever) Retrieve(ctx context.Context, candidates ...string) (*Record, bool) {
	if !r.searcher.Configured() {
		slog.Debug("fdc api key not set, skipping nutrition lookup")
		return nil, false
	}

	for _, candidate := range candidates {
		foods, err := r.searcher.Search(ctx, candidate)
		if err != nil {
			slog.Warn("nutrition lookup failed", "query", candidate, "error", err)
			continue
		}
		if len(foods) == 0 {
			slog.Info("nutrition lookup returned no foods", "query", candidate)
			continue
		}

		top := foods[0]
		if !Matches(candidate, top.Description) {
			slog.Info("discarding unrelated nutrition match", "query", candidate, "description", top.Description)
			continue
		}

		return newRecord(top), true
	}

	return nil, false
}

// Matches reports whether description plausibly refers to query: at least one
// alphabetic word of the query has to appear in the description.
func Matches(query, description string) bool {
	desc := strings.ToLower(description)
	tokens := alphabeticTokens(query)
	if len(tokens) == 0 {
		return false
	}

	for _, tok := range tokens {
		if strings.Contains(desc, tok) {
			return true
		}
	}
	return false
}

func alphabeticTokens(text string) []string {
	var tokens []string
	for _, field := range strings.Fields(strings.ToLower(text)) {
		alphabetic := true
		for _, r := range field {
			if !unicode.IsLetter(r) {
				alphabetic = false
				break
			}
		}
		if alphabetic {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

func newRecord(food SearchFood) *Record {
	record := &Record{Name: food.Description}
	if record.Name == "" {
		record.Name = "N/A"
	}

	for _, n := range food.FoodNutrients {
		var dst **float64
		switch string(n.NutrientNumber) {
		case EnergyNutrient:
			dst = &record.EnergyKcal
		case ProteinNutrient:
			dst = &record.ProteinG
		case FatNutrient:
			dst = &record.FatG
		case CarbohydrateNutrient:
			dst = &record.CarbohydrateG
		default:
			continue
		}

		// the first entry for a nutrient wins
		if *dst == nil && n.Value != nil {
			v := *n.Value
			*dst = &v
		}
	}

	return record
}
