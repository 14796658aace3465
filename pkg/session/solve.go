package session

import (
	"strconv"

	"sys2kernel/internal/csp"
	"sys2kernel/internal/dsl"
	"sys2kernel/internal/model"
	"sys2kernel/internal/planner"
	"sys2kernel/internal/vocabulary"
)

// planMeta is the Meta payload on a `plan` fact: the planner's own
// Result kept verbatim so a later `verifyPlan` goal can re-simulate it
// without re-resolving the originating solve block's start/goal
// references (spec §4.8).
type planMeta struct {
	Result planner.Result
}

// cspMeta is the Meta payload on a `cspSolution` fact: one satisfying
// assignment, variable symbol -> value symbol (spec §4.9).
type cspMeta struct {
	SolutionID string
	Bindings   map[vocabulary.ID]vocabulary.ID
}

// applySolve dispatches a StmtSolve block to the planner or CSP solver
// and asserts the resulting plan/cspSolution facts through their own
// Tx, the same one-statement-at-a-time commit applyFact uses so a
// later statement in the same learn call can `$name` this block's
// binding.
func (s *Session) applySolve(stmt dsl.Statement, env *dsl.BindingEnv) (int, error) {
	switch stmt.SolveKind {
	case "planning":
		return s.applyPlanningSolve(stmt, env)
	case "csp":
		return s.applyCspSolve(stmt, env)
	default:
		return 0, &ApplyError{Line: stmt.Line, Cause: "unknown solve kind: " + stmt.SolveKind}
	}
}

func (s *Session) applyPlanningSolve(stmt dsl.Statement, env *dsl.BindingEnv) (int, error) {
	result := s.planner.Plan(s.store, s.vocab, stmt.SolveParams)

	planOp := s.vocab.GetOrCreate("plan")
	stepOp := s.vocab.GetOrCreate("planStep")

	tx := s.store.Begin()
	tx.Assert(&model.Fact{
		Expr: model.TripleExpr(model.Triple{
			Operator: planOp,
			Arg1:     model.SymbolArg(s.vocab.GetOrCreate(result.PlanID)),
			Arg2:     model.SymbolArg(boolSymbol(s.vocab, result.Solved)),
		}),
		Name: stmt.BindName,
		Line: stmt.Line,
		Meta: &planMeta{Result: result},
	})
	for _, step := range result.Steps {
		tx.Assert(&model.Fact{
			Expr: model.TripleExpr(model.Triple{
				Operator: stepOp,
				Arg1:     model.SymbolArg(s.vocab.GetOrCreate(result.PlanID + "#" + strconv.Itoa(step.Index))),
				Arg2:     model.SymbolArg(step.Action),
			}),
			Line: stmt.Line,
		})
	}

	if err := tx.Commit(); err != nil {
		return 0, &ApplyError{Line: stmt.Line, Operator: "solve planning", Cause: err.Error(), Err: err}
	}
	ids := tx.CommittedIDs()
	if stmt.BindName != "" && len(ids) > 0 {
		env.Bind(stmt.BindName, ids[0])
	}
	return len(ids), nil
}

func (s *Session) applyCspSolve(stmt dsl.Statement, env *dsl.BindingEnv) (int, error) {
	problem := csp.BuildProblem(s.vocab, stmt.SolveParams)
	result := s.csp.Solve(problem)

	solutionOp := s.vocab.GetOrCreate("cspSolution")
	relOp := s.vocab.GetOrCreate(problem.SolutionRelation)

	tx := s.store.Begin()
	for i, soln := range result.Solutions {
		solFact := &model.Fact{
			Expr: model.TripleExpr(model.Triple{
				Operator: solutionOp,
				Arg1:     model.SymbolArg(s.vocab.GetOrCreate(soln.ID)),
				Arg2:     model.SymbolArg(boolSymbol(s.vocab, true)),
			}),
			Line: stmt.Line,
			Meta: &cspMeta{SolutionID: soln.ID, Bindings: soln.Bindings},
		}
		if i == 0 {
			solFact.Name = stmt.BindName
		}
		tx.Assert(solFact)
		for _, v := range problem.Variables {
			val, ok := soln.Bindings[v]
			if !ok {
				continue
			}
			tx.Assert(&model.Fact{
				Expr: model.TripleExpr(model.Triple{Operator: relOp, Arg1: model.SymbolArg(v), Arg2: model.SymbolArg(val)}),
				Line: stmt.Line,
			})
		}
	}
	if len(result.Solutions) == 0 && stmt.BindName != "" {
		tx.Assert(&model.Fact{
			Expr: model.TripleExpr(model.Triple{
				Operator: solutionOp,
				Arg1:     model.SymbolArg(s.vocab.GetOrCreate("none")),
				Arg2:     model.SymbolArg(boolSymbol(s.vocab, false)),
			}),
			Name: stmt.BindName,
			Line: stmt.Line,
		})
	}

	if err := tx.Commit(); err != nil {
		return 0, &ApplyError{Line: stmt.Line, Operator: "solve csp", Cause: err.Error(), Err: err}
	}
	ids := tx.CommittedIDs()
	if stmt.BindName != "" && len(ids) > 0 {
		env.Bind(stmt.BindName, ids[0])
	}
	return len(ids), nil
}

func boolSymbol(vocab *vocabulary.Vocabulary, v bool) vocabulary.ID {
	if v {
		return vocab.GetOrCreate("true")
	}
	return vocab.GetOrCreate("false")
}
