package session

import (
	"sys2kernel/internal/proof"
	"sys2kernel/internal/vocabulary"
)

// QueryOptions configures one Query call (spec §4.10). A zero value
// selects the reasoner's own defaults.
type QueryOptions struct {
	MaxResults int
	TimeoutMs  int
}

// QueryBinding is one witness returned by Query: its resolved variable
// bindings plus the rendered proof sentence for that witness.
type QueryBinding struct {
	Bindings map[vocabulary.ID]vocabulary.ID
	Sentence string
}

// Query parses text's first statement as a goal (the same convention
// Prove uses) and enumerates its witnesses (spec §4.6 "Exists" /
// §4.10's lazy, bounded result stream).
func (s *Session) Query(text string, opts QueryOptions) []QueryBinding {
	env := s.seedEnv()
	goal, ok := s.firstGoal(text, env)
	if !ok {
		return nil
	}

	timeout := opts.TimeoutMs
	if timeout == 0 {
		timeout = s.cfg.TimeoutMs
	}
	results := s.reasoner.Query(goal, opts.MaxResults, timeout)
	out := make([]QueryBinding, 0, len(results))
	for _, r := range results {
		out = append(out, QueryBinding{Bindings: r.Bindings, Sentence: proof.Render(r.Steps)})
	}
	return out
}
