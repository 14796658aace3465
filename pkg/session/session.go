// Package session implements the Session orchestrator (spec §4.10):
// the top-level learn/prove/query API that owns a Vocabulary, FactStore,
// and Reasoner for one knowledge base and wires the Parser, planner,
// and CSP solver behind the DSL's `solve` blocks. Grounded on the
// teacher's cmd/nerd/chat session-construction idiom (one long-lived
// struct composing the subsystems it orchestrates, a Config loaded once
// at construction, zap/oops for logging and errors) and on
// internal/config.Config for the recognised option keys.
package session

import (
	"go.uber.org/zap"

	"sys2kernel/internal/config"
	"sys2kernel/internal/contradiction"
	"sys2kernel/internal/csp"
	"sys2kernel/internal/dsl"
	"sys2kernel/internal/model"
	"sys2kernel/internal/planner"
	"sys2kernel/internal/reasoner"
	"sys2kernel/internal/store"
	"sys2kernel/internal/vocabulary"
)

// Session is the single-session, synchronous orchestration root spec
// §1/§5 describes: it owns the Vocabulary and FactStore exclusively and
// is not safe for concurrent learn/prove/query calls (spec §5).
type Session struct {
	cfg    *config.Config
	logger *zap.Logger

	vocab    *vocabulary.Vocabulary
	store    *store.FactStore
	reasoner *reasoner.Reasoner
	parser   *dsl.Parser
	planner  *planner.Planner
	csp      *csp.Solver

	plans     map[string]*planMeta
	cspSolns  map[string][]cspMeta
	nextSolve int
}

// New constructs a Session from cfg, building the Vocabulary/FactStore/
// Reasoner aggregate spec §9's "global stateful session" design note
// describes, and preloads any configured theory directory.
func New(cfg *config.Config) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := cfg.Logging.Build()
	if err != nil {
		return nil, err
	}

	vocab := vocabulary.New(cfg.Strategy(), logger)
	fs := store.New(vocab, logger)
	fs.SetMaxFacts(cfg.Limits.MaxFactsInKernel)
	detector := contradiction.New(logger, cfg.ProofMaxDepth)
	fs.SetChecker(detector)

	s := &Session{
		cfg:      cfg,
		logger:   logger,
		vocab:    vocab,
		store:    fs,
		reasoner: reasoner.New(fs, cfg.ReasonerConfig(), logger),
		parser:   dsl.NewParser(vocab),
		planner:  planner.New(logger),
		csp:      csp.New(logger),
		plans:    make(map[string]*planMeta),
		cspSolns: make(map[string][]cspMeta),
	}

	if cfg.TheoryDir != "" {
		if errs := s.LoadTheories(cfg.TheoryDir); len(errs) > 0 {
			for _, e := range errs {
				if e.Mandatory {
					return nil, e.Err
				}
				logger.Warn("theory load error", zap.String("file", e.File), zap.Error(e.Err))
			}
		}
	}
	return s, nil
}

// Stats aggregates the store's and reasoner's session-visible counters
// (spec §4.4 stats() + §4.10 reasoning stats counters).
type Stats struct {
	LiveFacts         int
	SymbolCount       int
	OperatorHistogram map[string]int
	KBScans           int
	SimilarityChecks  int
	RuleFirings       int
	UnificationAttempts int
}

// Stats returns the current counters (spec §6 "stats() -> counters").
func (s *Session) Stats() Stats {
	st := s.store.Stats()
	rs := s.reasoner.Stats()
	return Stats{
		LiveFacts:           st.LiveFacts,
		SymbolCount:         st.SymbolCount,
		OperatorHistogram:   st.OperatorHistogram,
		KBScans:             rs.KBScans,
		SimilarityChecks:    rs.SimilarityChecks,
		RuleFirings:         rs.RuleFirings,
		UnificationAttempts: rs.UnificationAttempts,
	}
}

// Dump returns a bounded debugging snapshot (spec §6 "dump() ->
// snapshot for debugging (bounded)"). maxFacts <= 0 selects
// DefaultDumpLimit.
type Snapshot struct {
	Facts       []DumpedFact
	SymbolCount int
	Truncated   bool
}

// DumpedFact is one fact rendered for Snapshot.
type DumpedFact struct {
	ID       model.FactID
	Name     string
	Polarity bool
	Sentence string
}

// DefaultDumpLimit bounds Dump's output (spec: "bounded").
const DefaultDumpLimit = 1000

func (s *Session) Dump(maxFacts int) Snapshot {
	if maxFacts <= 0 {
		maxFacts = DefaultDumpLimit
	}
	facts := s.store.Facts(store.Pattern{})
	truncated := false
	if len(facts) > maxFacts {
		facts = facts[:maxFacts]
		truncated = true
	}
	out := make([]DumpedFact, 0, len(facts))
	for _, f := range facts {
		out = append(out, DumpedFact{
			ID:       f.ID,
			Name:     f.Name,
			Polarity: f.Polarity,
			Sentence: renderFactSentence(s.vocab, f),
		})
	}
	return Snapshot{Facts: out, SymbolCount: s.vocab.Count(), Truncated: truncated}
}

// seedEnv builds a fresh BindingEnv for one learn/prove/query call,
// pre-populated with every persistent (lowercase-initial) @name binding
// the store already carries (spec §3 "Binding environment": persistent
// names carry across the session, ephemeral ones don't survive past
// the call that created them).
func (s *Session) seedEnv() *dsl.BindingEnv {
	env := dsl.NewBindingEnv()
	for name, id := range s.store.Names() {
		env.Bind(name, id)
	}
	return env
}

func symName(vocab *vocabulary.Vocabulary, id vocabulary.ID) string {
	if sym, ok := vocab.Get(id); ok {
		return sym.Name
	}
	return "?"
}
