// Package reasoner implements the Reasoner (spec §4.6): first-order
// unification, ground/transitive/symmetric/inheritance/modus-ponens goal
// dispatch, Not/And/Or evaluation, and the closed-world assumption.
package reasoner

import "sys2kernel/internal/vocabulary"

// Bindings is a rank-and-point union-find keyed on variable symbol IDs,
// per spec §4.6: "occurs-check disabled ... cycles are avoided by a
// rank-and-point union-find keyed on VarId". Binding a variable to a
// constant always makes the constant the representative; binding two
// variables together picks either as representative (rank-balanced) —
// soundness doesn't depend on which.
type Bindings struct {
	vocab  *vocabulary.Vocabulary
	parent map[vocabulary.ID]vocabulary.ID
	rank   map[vocabulary.ID]int
}

// NewBindings constructs an empty binding environment scoped to one
// goal invocation (spec §4.6: "Variables scope per goal invocation").
func NewBindings(vocab *vocabulary.Vocabulary) *Bindings {
	return &Bindings{
		vocab:  vocab,
		parent: make(map[vocabulary.ID]vocabulary.ID),
		rank:   make(map[vocabulary.ID]int),
	}
}

// Clone copies the binding set for an independent search branch (used
// by Or's multiple candidate branches and backtracking in modus
// ponens/transitive search).
func (b *Bindings) Clone() *Bindings {
	cp := NewBindings(b.vocab)
	for k, v := range b.parent {
		cp.parent[k] = v
	}
	for k, v := range b.rank {
		cp.rank[k] = v
	}
	return cp
}

func (b *Bindings) isVariable(id vocabulary.ID) bool {
	sym, ok := b.vocab.Get(id)
	return ok && sym.Kind == vocabulary.Variable
}

// Resolve follows the union-find chain to id's current representative:
// either an unbound variable (which stands for itself) or the constant
// it was eventually bound to.
func (b *Bindings) Resolve(id vocabulary.ID) vocabulary.ID {
	root := id
	for {
		next, ok := b.parent[root]
		if !ok {
			break
		}
		root = next
	}
	for cur := id; cur != root; {
		next := b.parent[cur]
		b.parent[cur] = root
		cur = next
	}
	return root
}

// Bind unifies a and b, returning false only when both resolve to
// distinct non-variable constants (a genuine clash). A variable always
// yields to a constant; between two variables, rank decides the root.
func (b *Bindings) Bind(a, c vocabulary.ID) bool {
	ra, rc := b.Resolve(a), b.Resolve(c)
	if ra == rc {
		return true
	}
	aVar, cVar := b.isVariable(ra), b.isVariable(rc)
	switch {
	case !aVar && !cVar:
		return false // two distinct grounded constants: clash
	case aVar && !cVar:
		b.parent[ra] = rc
	case !aVar && cVar:
		b.parent[rc] = ra
	default:
		if b.rank[ra] < b.rank[rc] {
			b.parent[ra] = rc
		} else if b.rank[ra] > b.rank[rc] {
			b.parent[rc] = ra
		} else {
			b.parent[rc] = ra
			b.rank[ra]++
		}
	}
	return true
}
