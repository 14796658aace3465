package session

import (
	"strings"

	"sys2kernel/internal/dsl"
	"sys2kernel/internal/model"
	"sys2kernel/internal/proof"
	"sys2kernel/internal/reasoner"
	"sys2kernel/internal/store"
	"sys2kernel/internal/vocabulary"
)

// ProveResult is Prove's outcome: the reasoner's Verdict for text's
// first goal statement, plus that verdict's rendered proof sentence
// (spec §4.6/§4.7/§4.10).
type ProveResult struct {
	reasoner.Verdict
	Sentence string
}

// Prove parses text and evaluates only its first statement as a goal,
// discarding the rest (the "first-goal-only" contract recorded as an
// Open Question decision in DESIGN.md). A `verifyPlan $name ?ok` goal
// is intercepted before reasoner dispatch and answered by re-simulating
// the named plan (spec §4.8) rather than through the generic triple/
// compound goal-dispatch machinery, since Planner/CSP results are not
// themselves reasoner goal forms.
func (s *Session) Prove(text string) ProveResult {
	env := s.seedEnv()
	goal, ok := s.firstGoal(text, env)
	if !ok {
		return ProveResult{Verdict: reasoner.Verdict{Unknown: true, FailureTrace: "no goal statement found"}}
	}

	var v reasoner.Verdict
	if goal.Kind == model.ExprTriple && symName(s.vocab, goal.Triple.Operator) == "verifyPlan" {
		v = s.verifyPlanVerdict(goal.Triple)
	} else {
		v = s.reasoner.Prove(goal, s.cfg.TimeoutMs)
	}
	return ProveResult{Verdict: v, Sentence: proof.Render(v.Steps)}
}

// firstGoal parses only text's first statement and returns its
// expression; any further statements are discarded unread, matching
// "prove" 's first-goal-only contract literally rather than applying
// side effects from statements that are never evaluated.
func (s *Session) firstGoal(text string, env *dsl.BindingEnv) (model.Expression, bool) {
	chunks := splitStatements(text)
	if len(chunks) == 0 {
		return model.Expression{}, false
	}
	stmts, err := s.parser.Parse(chunks[0], env)
	if err != nil || len(stmts) == 0 {
		return model.Expression{}, false
	}
	stmt := stmts[0]
	if stmt.Kind != dsl.StmtFact {
		return model.Expression{}, false
	}
	return stmt.Expr, true
}

// verifyPlanVerdict answers a `verifyPlan planRef ?ok` goal by
// resolving planRef to the plan fact it names and re-simulating its
// steps with Planner.Verify.
func (s *Session) verifyPlanVerdict(goal model.Triple) reasoner.Verdict {
	planFact, ok := s.resolvePlanRef(goal.Arg1)
	if !ok {
		return reasoner.Verdict{Unknown: true, FailureTrace: "verifyPlan: unresolved plan reference"}
	}
	pm, ok := planFact.Meta.(*planMeta)
	if !ok {
		return reasoner.Verdict{Unknown: true, FailureTrace: "verifyPlan: fact is not a plan"}
	}

	steps := make([]vocabulary.ID, len(pm.Result.Steps))
	for i, st := range pm.Result.Steps {
		steps[i] = st.Action
	}
	solved := s.planner.Verify(s.store, s.vocab, pm.Result.Starts, pm.Result.Goals, steps)

	bindings := map[vocabulary.ID]vocabulary.ID{}
	if goal.Arg2.Kind == model.ArgSymbol {
		if sym, found := s.vocab.Get(goal.Arg2.Symbol); found && sym.Kind == vocabulary.Variable {
			bindings[goal.Arg2.Symbol] = boolSymbol(s.vocab, solved)
		}
	}
	return reasoner.Verdict{Proven: solved, Bindings: bindings}
}

// resolvePlanRef dereferences a verifyPlan goal's first argument to the
// plan fact it names: a `$name` reference resolves through the store's
// @name bindings the way solve-block params already do; a bare word is
// read as the plan's own generated ID and looked up directly among
// `plan` facts.
func (s *Session) resolvePlanRef(arg model.Arg) (*model.Fact, bool) {
	if arg.Kind != model.ArgSymbol {
		return nil, false
	}
	sym, ok := s.vocab.Get(arg.Symbol)
	if !ok {
		return nil, false
	}
	if strings.HasPrefix(sym.Name, "$") {
		return s.store.GetByName(strings.TrimPrefix(sym.Name, "$"))
	}
	planOp, ok := s.vocab.Lookup("plan")
	if !ok {
		return nil, false
	}
	facts := s.store.Facts(store.Pattern{Operator: planOp.ID, HasOperator: true, Arg1: arg.Symbol, HasArg1: true})
	if len(facts) == 0 {
		return nil, false
	}
	return facts[0], true
}
