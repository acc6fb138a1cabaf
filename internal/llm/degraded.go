package llm

import "context"

const UnavailablePrefix = "(LLM unavailable)"

// Degraded stands in for a real model when no credentials are configured. It
// never fails; it echoes the last message back with an unavailable label.
type Degraded struct{}

// IsDegraded reports whether gen is the stand-in generator.
func IsDegraded(gen Generator) bool {
	switch gen.(type) {
	case Degraded, *Degraded:
		return true
	}
	return false
}

func (Degraded) Generate(_ context.Context, req Request) (string, error) {
	if len(req.Messages) == 0 && req.System == "" {
		return "(no messages)", nil
	}
	return UnavailablePrefix + " I would respond to: '" + lastContent(req) + "'", nil
}
