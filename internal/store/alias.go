package store

import (
	"github.com/samber/oops"

	"sys2kernel/internal/model"
	"sys2kernel/internal/vocabulary"
)

// aliasTable implements spec §4.4's alias/synonym canonicalisation.
// One-directional `alias X Y` edges are a rewrite graph (X always
// resolves to Y); because the rewrite is directional, a chain of them
// can form a genuine cycle, which install rejects. `synonym X Y` is a
// true equivalence relation — both names collapse onto one arbitrary
// representative — and is kept as a separate union-find so that two
// synonym declarations can never be "cyclic" (attaching root-to-root
// is always safe).
type aliasTable struct {
	rewrite map[vocabulary.ID]vocabulary.ID
	union   map[vocabulary.ID]vocabulary.ID
}

func newAliasTable() *aliasTable {
	return &aliasTable{
		rewrite: make(map[vocabulary.ID]vocabulary.ID),
		union:   make(map[vocabulary.ID]vocabulary.ID),
	}
}

func (a *aliasTable) findUnion(id vocabulary.ID) vocabulary.ID {
	root := id
	for {
		next, ok := a.union[root]
		if !ok {
			break
		}
		root = next
	}
	// path compression
	for cur := id; cur != root; {
		next := a.union[cur]
		a.union[cur] = root
		cur = next
	}
	return root
}

func (a *aliasTable) resolveRewrite(id vocabulary.ID) vocabulary.ID {
	cur := id
	seen := map[vocabulary.ID]bool{}
	for {
		if seen[cur] {
			return cur // defensive: stop on an (unexpected) cycle rather than loop forever
		}
		seen[cur] = true
		next, ok := a.rewrite[cur]
		if !ok {
			return cur
		}
		cur = next
	}
}

// canonicalize applies alias rewrite first, then synonym union-find.
func (a *aliasTable) canonicalize(id vocabulary.ID) vocabulary.ID {
	return a.findUnion(a.resolveRewrite(id))
}

// install registers `from -> to` (alias) or unions {from, to} (synonym,
// bidi=true). vocab.GetOrCreate interns either name if it is new, which
// matches spec §4.3: an alias target need not already appear in the KB.
func (a *aliasTable) install(vocab *vocabulary.Vocabulary, fromName, toName string, bidi bool) error {
	fromID := vocab.GetOrCreate(fromName)
	toID := vocab.GetOrCreate(toName)

	if bidi {
		ra, rb := a.findUnion(fromID), a.findUnion(toID)
		if ra != rb {
			a.union[ra] = rb
		}
		return nil
	}

	cur := toID
	limit := len(a.rewrite) + 1
	for i := 0; i < limit; i++ {
		if cur == fromID {
			return oops.Code("AliasCycle").
				With("from", fromName).With("to", toName).
				Errorf("alias %s -> %s would close a cycle", fromName, toName)
		}
		next, ok := a.rewrite[cur]
		if !ok {
			break
		}
		cur = next
	}
	a.rewrite[fromID] = toID
	return nil
}

// canonicalizeExprLocked rewrites every symbol ID an Expression
// references through the current alias table. Called both when staging
// a fresh assertion and when re-canonicalising the whole store after a
// new alias installs mid-transaction.
func (s *FactStore) canonicalizeExprLocked(e model.Expression) model.Expression {
	if e.Kind == model.ExprTriple {
		t := e.Triple
		t.Operator = s.aliases.canonicalize(t.Operator)
		t.Arg1 = s.canonicalizeArgLocked(t.Arg1)
		t.Arg2 = s.canonicalizeArgLocked(t.Arg2)
		return model.TripleExpr(t)
	}
	if e.Compound == nil {
		return e
	}
	rewritten := &model.Compound{ID: e.Compound.ID, Form: e.Compound.Form, Args: make([]model.Expression, len(e.Compound.Args))}
	for i, child := range e.Compound.Args {
		rewritten.Args[i] = s.canonicalizeExprLocked(child)
	}
	return model.CompoundExpr(rewritten)
}

func (s *FactStore) canonicalizeArgLocked(a model.Arg) model.Arg {
	if a.Kind == model.ArgSymbol {
		return model.SymbolArg(s.aliases.canonicalize(a.Symbol))
	}
	return a
}

// rewriteAllOnAliasChangeLocked re-canonicalises every live fact and
// rebuilds the indices. Spec §4.4 allows either eager rewrite on commit
// or canonicalise-on-lookup; DESIGN.md records the eager choice here.
func (s *FactStore) rewriteAllOnAliasChangeLocked() {
	s.byOperator = make(map[vocabulary.ID][]model.FactID)
	s.byOpArg1 = make(map[opArgKey][]model.FactID)
	s.byOpArg2 = make(map[opArgKey][]model.FactID)
	for id, f := range s.facts {
		f.Expr = s.canonicalizeExprLocked(f.Expr)
		f.Fingerprint = model.Fingerprint(f.Expr, f.Polarity)
		s.indexLocked(id, f)
	}
}
