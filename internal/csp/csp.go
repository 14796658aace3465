// Package csp implements the constraint-propagation + backtracking
// solver behind `solve csp` blocks (spec §4.9): AC-3 arc consistency
// precompute followed by backtracking search, enumerating every
// satisfying assignment up to a bound.
package csp

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sys2kernel/internal/dsl"
	"sys2kernel/internal/vocabulary"
)

// DefaultMaxSolutions bounds "enumerate all assignments" for one call;
// spec §4.9 names exhaustive enumeration but a concrete call still needs
// a backstop.
const DefaultMaxSolutions = 10000

// ConstraintKind is a built-in binary relation a `constraint` line can
// declare between two variables.
type ConstraintKind int

const (
	NotEqual ConstraintKind = iota
	Equal
)

// Constraint is one binary relation between two declared variables.
type Constraint struct {
	Kind ConstraintKind
	A, B vocabulary.ID
}

// Problem is the variable/domain/constraint model extracted from a
// solve-csp block's params.
type Problem struct {
	Variables        []vocabulary.ID
	Domains          map[vocabulary.ID][]vocabulary.ID // value symbols, first-seen order
	Constraints      []Constraint
	SolutionRelation string
	MaxSolutions     int
}

// Solution is one satisfying assignment, variable symbol -> value symbol.
type Solution struct {
	ID       string
	Bindings map[vocabulary.ID]vocabulary.ID
}

// Result is the outcome of one Solve call.
type Result struct {
	Solutions []Solution
	Trace     string // populated only when Solutions is empty
}

// Solver runs AC-3 + backtracking over a Problem.
type Solver struct {
	logger *zap.Logger
}

// New constructs a Solver. A nil logger is replaced with a no-op one.
func New(logger *zap.Logger) *Solver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Solver{logger: logger}
}

// BuildProblem parses a solve-csp block's params into a Problem.
// Lines:
//
//	variable from V
//	domain from V value        (repeatable per V, accumulates the domain)
//	constraint from kind V1 V2 (kind is "equal" or "notEqual")
//	solutionRelation from name
//	maxSolutions from n
func BuildProblem(vocab *vocabulary.Vocabulary, params []dsl.SolveParam) Problem {
	p := Problem{
		Domains:          map[vocabulary.ID][]vocabulary.ID{},
		SolutionRelation: "cspSolution",
		MaxSolutions:     DefaultMaxSolutions,
	}
	seenVar := map[vocabulary.ID]bool{}
	addVar := func(v vocabulary.ID) {
		if !seenVar[v] {
			seenVar[v] = true
			p.Variables = append(p.Variables, v)
		}
	}
	seenVal := map[vocabulary.ID]map[vocabulary.ID]bool{}

	for _, param := range params {
		switch param.Key {
		case "variable":
			addVar(vocab.GetOrCreate(strings.TrimSpace(param.Value)))
		case "domain":
			fields := strings.Fields(param.Value)
			if len(fields) != 2 {
				continue
			}
			v := vocab.GetOrCreate(fields[0])
			val := vocab.GetOrCreate(fields[1])
			addVar(v)
			if seenVal[v] == nil {
				seenVal[v] = map[vocabulary.ID]bool{}
			}
			if !seenVal[v][val] {
				seenVal[v][val] = true
				p.Domains[v] = append(p.Domains[v], val)
			}
		case "constraint":
			fields := strings.Fields(param.Value)
			if len(fields) != 3 {
				continue
			}
			kind, ok := parseConstraintKind(fields[0])
			if !ok {
				continue
			}
			a := vocab.GetOrCreate(fields[1])
			b := vocab.GetOrCreate(fields[2])
			addVar(a)
			addVar(b)
			p.Constraints = append(p.Constraints, Constraint{Kind: kind, A: a, B: b})
		case "solutionRelation":
			p.SolutionRelation = strings.TrimSpace(param.Value)
		case "maxSolutions":
			if n, err := dsl.ParamInt(param.Value); err == nil && n > 0 {
				p.MaxSolutions = n
			}
		}
	}
	return p
}

func parseConstraintKind(s string) (ConstraintKind, bool) {
	switch s {
	case "notEqual":
		return NotEqual, true
	case "equal":
		return Equal, true
	default:
		return 0, false
	}
}

func newSolutionID() string { return uuid.NewString() }
