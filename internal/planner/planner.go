// Package planner implements the STRIPS-like forward BFS planner (spec
// §4.8): actions are assembled from declared requires/causes/prevents
// triples, and the search finds the shortest action sequence whose
// resulting state subsumes the goal literals.
package planner

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sys2kernel/internal/dsl"
	"sys2kernel/internal/model"
	"sys2kernel/internal/store"
	"sys2kernel/internal/vocabulary"
)

// DefaultMaxDepth is spec §4.8's BFS depth cap default.
const DefaultMaxDepth = 10

// Action is one STRIPS-like operator assembled from the requires/
// causes/prevents triples declared for one action symbol.
type Action struct {
	Name     vocabulary.ID
	Requires []model.Triple
	Causes   []model.Triple
	Prevents []model.Triple
}

// Step is one entry of a found plan.
type Step struct {
	Index  int
	Action vocabulary.ID
}

// Result is the outcome of one Plan call. Starts/Goals are carried back
// so a caller can later re-run Verify against the same literals without
// re-resolving the originating solve block's references.
type Result struct {
	Solved bool
	PlanID string
	Steps  []Step
	Starts []model.Triple
	Goals  []model.Triple
	Trace  string // diagnostic, populated only when !Solved
}

// Planner finds STRIPS-like plans over a FactStore's declared actions.
type Planner struct {
	logger *zap.Logger
}

// New constructs a Planner. A nil logger is replaced with a no-op one.
func New(logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{logger: logger}
}

// config is the resolved form of a solve-planning block's SolveParams.
type config struct {
	starts      []model.Triple
	goals       []model.Triple
	guard       vocabulary.ID
	conflictOp  vocabulary.ID
	locationOp  vocabulary.ID
	maxDepth    int
}

func resolveConfig(s *store.FactStore, vocab *vocabulary.Vocabulary, params []dsl.SolveParam) config {
	cfg := config{maxDepth: DefaultMaxDepth}
	for _, p := range params {
		switch p.Key {
		case "start":
			if lit, ok := resolveNamedLiteral(s, p.Value); ok {
				cfg.starts = append(cfg.starts, lit)
			}
		case "goal":
			if lit, ok := resolveNamedLiteral(s, p.Value); ok {
				cfg.goals = append(cfg.goals, lit)
			}
		case "guard":
			cfg.guard = vocab.GetOrCreate(p.Value)
		case "conflictOp":
			cfg.conflictOp = vocab.GetOrCreate(p.Value)
		case "locationOp":
			cfg.locationOp = vocab.GetOrCreate(p.Value)
		case "maxDepth":
			if n, err := dsl.ParamInt(p.Value); err == nil && n > 0 {
				cfg.maxDepth = n
			}
		}
	}
	return cfg
}

// resolveNamedLiteral dereferences a solve-block value naming a
// previously bound fact (with or without its leading '$') to that
// fact's triple.
func resolveNamedLiteral(s *store.FactStore, raw string) (model.Triple, bool) {
	name := strings.TrimPrefix(raw, "$")
	fact, ok := s.GetByName(name)
	if !ok || fact.Expr.Kind != model.ExprTriple {
		return model.Triple{}, false
	}
	return fact.Expr.Triple, true
}

// resolveLiteralRef is resolveNamedLiteral's Arg-typed counterpart,
// used when walking requires/causes/prevents triples straight out of
// the store rather than a raw solve-block string.
func resolveLiteralRef(s *store.FactStore, vocab *vocabulary.Vocabulary, arg model.Arg) (model.Triple, bool) {
	if arg.Kind != model.ArgSymbol {
		return model.Triple{}, false
	}
	sym, ok := vocab.Get(arg.Symbol)
	if !ok {
		return model.Triple{}, false
	}
	return resolveNamedLiteral(s, sym.Name)
}

// collectActions assembles every declared action from the store's
// requires/causes/prevents triples, in first-seen order.
func collectActions(s *store.FactStore, vocab *vocabulary.Vocabulary) []Action {
	byName := map[vocabulary.ID]*Action{}
	var order []vocabulary.ID

	gather := func(opName string, assign func(*Action, model.Triple)) {
		op, ok := vocab.Lookup(opName)
		if !ok {
			return
		}
		for _, f := range s.Facts(store.Pattern{Operator: op.ID, HasOperator: true}) {
			if f.Expr.Kind != model.ExprTriple || !f.Polarity {
				continue
			}
			if f.Expr.Triple.Arg1.Kind != model.ArgSymbol {
				continue
			}
			actionName := f.Expr.Triple.Arg1.Symbol
			lit, ok := resolveLiteralRef(s, vocab, f.Expr.Triple.Arg2)
			if !ok {
				continue
			}
			a, seen := byName[actionName]
			if !seen {
				a = &Action{Name: actionName}
				byName[actionName] = a
				order = append(order, actionName)
			}
			assign(a, lit)
		}
	}
	gather("requires", func(a *Action, l model.Triple) { a.Requires = append(a.Requires, l) })
	gather("causes", func(a *Action, l model.Triple) { a.Causes = append(a.Causes, l) })
	gather("prevents", func(a *Action, l model.Triple) { a.Prevents = append(a.Prevents, l) })

	out := make([]Action, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out
}

// sortedByName returns actions ordered lexicographically by their
// symbol name, breaking ties among equal-length plans deterministically
// (spec §4.8).
func sortedByName(vocab *vocabulary.Vocabulary, actions []Action) []Action {
	out := make([]Action, len(actions))
	copy(out, actions)
	sort.Slice(out, func(i, j int) bool {
		return symbolName(vocab, out[i].Name) < symbolName(vocab, out[j].Name)
	})
	return out
}

func symbolName(vocab *vocabulary.Vocabulary, id vocabulary.ID) string {
	if sym, ok := vocab.Get(id); ok {
		return sym.Name
	}
	return ""
}

// Plan runs forward BFS for a solve-planning block's params against
// the store's declared actions.
func (p *Planner) Plan(s *store.FactStore, vocab *vocabulary.Vocabulary, params []dsl.SolveParam) Result {
	cfg := resolveConfig(s, vocab, params)
	actions := sortedByName(vocab, collectActions(s, vocab))

	initial := newLiteralSet(cfg.starts)
	goal := newLiteralSet(cfg.goals)

	frontier := []searchNode{{state: initial, path: nil}}
	seen := map[string]bool{canonicalKey(initial): true}

	for depth := 0; ; depth++ {
		for _, node := range frontier {
			if subsumes(node.state, goal) {
				return Result{Solved: true, PlanID: uuid.NewString(), Steps: node.path, Starts: cfg.starts, Goals: cfg.goals}
			}
		}
		if depth >= cfg.maxDepth {
			break
		}
		var next []searchNode
		for _, node := range frontier {
			for _, action := range actions {
				if !requiresSatisfied(node.state, action.Requires) {
					continue
				}
				candidate := applyAction(node.state, action)
				if !isSafe(s, candidate, cfg.conflictOp, cfg.locationOp, cfg.guard) {
					continue
				}
				key := canonicalKey(candidate)
				if seen[key] {
					continue
				}
				seen[key] = true
				path := make([]Step, len(node.path), len(node.path)+1)
				copy(path, node.path)
				path = append(path, Step{Index: len(path) + 1, Action: action.Name})
				next = append(next, searchNode{state: candidate, path: path})
			}
		}
		if len(next) == 0 {
			break
		}
		frontier = next
	}

	return Result{Solved: false, Starts: cfg.starts, Goals: cfg.goals, Trace: "no plan found within maxDepth=" + itoa(cfg.maxDepth)}
}

// Verify re-simulates steps from starts, checking every action's
// preconditions hold in sequence and the final state subsumes goals
// (spec §4.8's `verifyPlan` re-simulation).
func (p *Planner) Verify(s *store.FactStore, vocab *vocabulary.Vocabulary, starts, goals []model.Triple, steps []vocabulary.ID) bool {
	byName := map[vocabulary.ID]Action{}
	for _, a := range collectActions(s, vocab) {
		byName[a.Name] = a
	}
	state := newLiteralSet(starts)
	for _, name := range steps {
		action, ok := byName[name]
		if !ok || !requiresSatisfied(state, action.Requires) {
			return false
		}
		state = applyAction(state, action)
	}
	return subsumes(state, newLiteralSet(goals))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
