package csp

import "sys2kernel/internal/vocabulary"

type arcKey struct{ x, y vocabulary.ID }

// domainState tracks each variable's live bitset over its declared
// Problem.Domains[v] value slice, plus the relations between every pair
// of variables that share a constraint.
type domainState struct {
	bits      map[vocabulary.ID]bitSet
	relations map[arcKey][]Constraint
	neighbors map[vocabulary.ID]map[vocabulary.ID]bool
}

func newDomainState(p Problem) *domainState {
	ds := &domainState{
		bits:      map[vocabulary.ID]bitSet{},
		relations: map[arcKey][]Constraint{},
		neighbors: map[vocabulary.ID]map[vocabulary.ID]bool{},
	}
	for _, v := range p.Variables {
		ds.bits[v] = fullSet(len(p.Domains[v]))
	}
	link := func(x, y vocabulary.ID, c Constraint) {
		ds.relations[arcKey{x, y}] = append(ds.relations[arcKey{x, y}], c)
		if ds.neighbors[x] == nil {
			ds.neighbors[x] = map[vocabulary.ID]bool{}
		}
		ds.neighbors[x][y] = true
	}
	for _, c := range p.Constraints {
		link(c.A, c.B, c)
		link(c.B, c.A, Constraint{Kind: c.Kind, A: c.B, B: c.A})
	}
	return ds
}

func satisfies(kind ConstraintKind, va, vb vocabulary.ID) bool {
	switch kind {
	case NotEqual:
		return va != vb
	case Equal:
		return va == vb
	default:
		return false
	}
}

// revise removes values from domain x unsupported by any value of y
// under every relation declared between them. Returns whether x shrank.
func (ds *domainState) revise(p Problem, x, y vocabulary.ID) bool {
	rels := ds.relations[arcKey{x, y}]
	if len(rels) == 0 {
		return false
	}
	changed := false
	remaining := ds.bits[x]
	for _, i := range ds.bits[x].indices() {
		vx := p.Domains[x][i]
		supported := false
		for _, j := range ds.bits[y].indices() {
			vy := p.Domains[y][j]
			ok := true
			for _, c := range rels {
				if !satisfies(c.Kind, vx, vy) {
					ok = false
					break
				}
			}
			if ok {
				supported = true
				break
			}
		}
		if !supported {
			remaining = remaining.without(i)
			changed = true
		}
	}
	ds.bits[x] = remaining
	return changed
}

// ac3 precomputes arc consistency over every variable pair sharing a
// constraint, reporting false immediately on a wiped-out domain.
func (ds *domainState) ac3(p Problem) bool {
	var queue []arcKey
	for key := range ds.relations {
		queue = append(queue, key)
	}
	for len(queue) > 0 {
		arc := queue[0]
		queue = queue[1:]
		if !ds.revise(p, arc.x, arc.y) {
			continue
		}
		if ds.bits[arc.x].empty() {
			return false
		}
		for z := range ds.neighbors[arc.x] {
			if z != arc.y {
				queue = append(queue, arcKey{z, arc.x})
			}
		}
	}
	return true
}

// consistent reports whether assigning value index idx to variable v is
// compatible with every already-assigned neighbor (spec's lightweight
// per-assignment recheck in place of re-running full AC-3 each step).
func (ds *domainState) consistent(p Problem, v vocabulary.ID, idx int, assigned map[vocabulary.ID]int) bool {
	vv := p.Domains[v][idx]
	for n := range ds.neighbors[v] {
		ai, ok := assigned[n]
		if !ok {
			continue
		}
		nv := p.Domains[n][ai]
		for _, c := range ds.relations[arcKey{v, n}] {
			if !satisfies(c.Kind, vv, nv) {
				return false
			}
		}
	}
	return true
}

// Solve runs AC-3 then backtracking search over p, collecting up to
// p.MaxSolutions satisfying assignments in deterministic variable order.
func (s *Solver) Solve(p Problem) Result {
	if len(p.Variables) == 0 {
		return Result{Trace: "no variables declared"}
	}
	for _, v := range p.Variables {
		if len(p.Domains[v]) == 0 {
			return Result{Trace: "variable has an empty domain"}
		}
	}

	ds := newDomainState(p)
	if !ds.ac3(p) {
		return Result{Trace: "arc consistency found no viable domain"}
	}

	var solutions []Solution
	assigned := map[vocabulary.ID]int{}

	var backtrack func(pos int) bool
	backtrack = func(pos int) bool {
		if pos == len(p.Variables) {
			bindings := make(map[vocabulary.ID]vocabulary.ID, len(p.Variables))
			for _, v := range p.Variables {
				bindings[v] = p.Domains[v][assigned[v]]
			}
			solutions = append(solutions, Solution{ID: newSolutionID(), Bindings: bindings})
			return len(solutions) >= p.MaxSolutions
		}
		v := p.Variables[pos]
		for _, idx := range ds.bits[v].indices() {
			if !ds.consistent(p, v, idx, assigned) {
				continue
			}
			assigned[v] = idx
			stop := backtrack(pos + 1)
			delete(assigned, v)
			if stop {
				return true
			}
		}
		return false
	}
	backtrack(0)

	if len(solutions) == 0 {
		return Result{Trace: "no assignment satisfies every constraint"}
	}
	return Result{Solutions: solutions}
}
