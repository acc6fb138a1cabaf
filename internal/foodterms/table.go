package foodterms

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"
)

type Alias struct {
	Alias string
	Term  string
}

// Table holds the static lookup data used to find a searchable food name in
// free text. A Table is never modified after Load returns, so one instance can
// be shared by every session.
type Table struct {
	aliases   []Alias
	terms     []string
	patterns  []*regexp.Regexp
	followups []string
	variants  map[string][]string
}

//go:embed foods.yaml
var defaultTableYAML []byte

var loadDefault = sync.OnceValues(func() (*Table, error) {
	return Load(defaultTableYAML)
})

// Default returns the table compiled into the binary.
func Default() *Table {
	table, err := loadDefault()
	if err != nil {
		panic(fmt.Sprintf("embedded food table is invalid: %v", err))
	}
	return table
}

func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading food table %s: %w", path, err)
	}
	return Load(data)
}

func Load(data []byte) (*Table, error) {
	raw := struct {
		Aliases []struct {
			Alias string `yaml:"alias"`
			Term  string `yaml:"term"`
		} `yaml:"aliases"`
		Terms           []string            `yaml:"terms"`
		Patterns        []string            `yaml:"patterns"`
		FollowupMarkers []string            `yaml:"followup_markers"`
		Variants        map[string][]string `yaml:"variants"`
	}{}

	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing food table: %w", err)
	}

	table := &Table{variants: make(map[string][]string, len(raw.Variants))}

	for _, a := range raw.Aliases {
		alias, term := normalize(a.Alias), normalize(a.Term)
		if alias == "" || term == "" {
			return nil, fmt.Errorf("alias entry %q -> %q must have both an alias and a term", a.Alias, a.Term)
		}
		table.aliases = append(table.aliases, Alias{Alias: alias, Term: term})
	}

	for _, t := range raw.Terms {
		if term := normalize(t); term != "" {
			table.terms = append(table.terms, term)
		}
	}

	for _, p := range raw.Patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		// text is lowercased before matching; the pattern source is left alone so
		// escapes like \S keep their meaning.
		rx, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid food pattern %q: %w", p, err)
		}
		table.patterns = append(table.patterns, rx)
	}

	for _, m := range raw.FollowupMarkers {
		if marker := normalize(m); marker != "" {
			table.followups = append(table.followups, marker)
		}
	}

	for term, variants := range raw.Variants {
		key := normalize(term)
		for _, v := range variants {
			if v := normalize(v); v != "" && v != key {
				table.variants[key] = append(table.variants[key], v)
			}
		}
	}

	return table, nil
}

func normalize(text string) string {
	return strings.TrimSpace(strings.ToLower(text))
}

// Detect returns the canonical search term for the first food name found in
// text. Aliases take precedence over terms, and terms over patterns; within
// each group the first entry in table order wins. Matching is by substring,
// so "rice" is also found inside "ricer".
func (t *Table) Detect(text string) (string, bool) {
	normalized := normalize(text)
	if normalized == "" {
		return "", false
	}

	for _, a := range t.aliases {
		if strings.Contains(normalized, a.Alias) {
			return a.Term, true
		}
	}

	for _, term := range t.terms {
		if strings.Contains(normalized, term) {
			return term, true
		}
	}

	for _, rx := range t.patterns {
		if match := rx.FindString(normalized); match != "" {
			return match, true
		}
	}

	return "", false
}

// IsFollowup reports whether text reads as a continuation of the previous
// topic: it names no food itself but contains one of the follow-up markers.
func (t *Table) IsFollowup(text string) bool {
	normalized := normalize(text)
	if normalized == "" {
		return false
	}

	if _, found := t.Detect(normalized); found {
		return false
	}

	for _, marker := range t.followups {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}

// Candidates returns the strings to search for term, most specific first.
func (t *Table) Candidates(term string) []string {
	term = normalize(term)
	if term == "" {
		return nil
	}
	return append([]string{term}, t.variants[term]...)
}
