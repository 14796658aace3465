// Package model defines the tagged-variant data model shared by the
// parser, fact store, reasoner, and proof builder: symbols compose into
// triples and compounds, which are persisted as facts. Dynamic typing in
// the source domain becomes this closed sum type here (spec §9).
package model

import (
	"fmt"

	"sys2kernel/internal/vocabulary"
)

// ArgKind distinguishes a triple argument that names a symbol directly
// from one that points at a nested compound expression.
type ArgKind int

const (
	ArgSymbol ArgKind = iota
	ArgCompound
)

// Arg is one slot (operator, arg1, or arg2) of a Triple.
type Arg struct {
	Kind       ArgKind
	Symbol     vocabulary.ID
	CompoundID CompoundID
}

// SymbolArg builds a symbol-valued Arg.
func SymbolArg(id vocabulary.ID) Arg { return Arg{Kind: ArgSymbol, Symbol: id} }

// CompoundArg builds a compound-valued Arg.
func CompoundArg(id CompoundID) Arg { return Arg{Kind: ArgCompound, CompoundID: id} }

func (a Arg) String() string {
	if a.Kind == ArgCompound {
		return fmt.Sprintf("#%d", a.CompoundID)
	}
	return fmt.Sprintf("%d", a.Symbol)
}

// Triple is the canonical fact unit: (operator, arg1, arg2).
type Triple struct {
	Operator vocabulary.ID
	Arg1     Arg
	Arg2     Arg
}

// CompoundForm enumerates the four compound expression shapes spec §3
// allows. Compounds nest arbitrarily and may contain variables.
type CompoundForm int

const (
	FormAnd CompoundForm = iota
	FormOr
	FormNot
	FormImplies
)

func (f CompoundForm) String() string {
	switch f {
	case FormAnd:
		return "And"
	case FormOr:
		return "Or"
	case FormNot:
		return "Not"
	case FormImplies:
		return "Implies"
	default:
		return "?"
	}
}

// CompoundID is an opaque handle into a Compound side-table.
type CompoundID uint64

// Compound is one And/Or/Not/Implies node. And/Or hold n children in
// Args; Not holds exactly one in Args[0]; Implies holds the antecedent
// in Args[0] and the consequent in Args[1].
type Compound struct {
	ID   CompoundID
	Form CompoundForm
	Args []Expression
}

// Antecedent returns an Implies compound's antecedent expression.
func (c *Compound) Antecedent() Expression { return c.Args[0] }

// Consequent returns an Implies compound's consequent expression.
func (c *Compound) Consequent() Expression { return c.Args[1] }

// Operand returns a Not compound's single operand.
func (c *Compound) Operand() Expression { return c.Args[0] }

// ExprKind distinguishes a ground/variable triple from a compound node.
type ExprKind int

const (
	ExprTriple ExprKind = iota
	ExprCompound
)

// Expression is the single variant used everywhere a "fact or compound"
// value is needed, per spec §9's "no shared base object" design note.
type Expression struct {
	Kind     ExprKind
	Triple   Triple
	Compound *Compound
}

// TripleExpr wraps a Triple as an Expression.
func TripleExpr(t Triple) Expression { return Expression{Kind: ExprTriple, Triple: t} }

// CompoundExpr wraps a Compound as an Expression.
func CompoundExpr(c *Compound) Expression { return Expression{Kind: ExprCompound, Compound: c} }

// FlattenConsequent returns e itself, or every leaf of an And/Or tree —
// spec §4.6's "compound conclusion" handling: an Implies whose
// consequent is And(P,Q) or Or(P,Q) proves each of P and Q
// individually. Shared by the reasoner's modus-ponens consequent walk
// and contradiction detection's bounded Implies-closure walk (spec
// §4.5 rule 3), so both treat a compound consequent the same way.
func FlattenConsequent(e Expression) []Expression {
	if e.Kind != ExprCompound || (e.Compound.Form != FormAnd && e.Compound.Form != FormOr) {
		return []Expression{e}
	}
	var out []Expression
	for _, child := range e.Compound.Args {
		out = append(out, FlattenConsequent(child)...)
	}
	return out
}

// FactID is an auto-increment, append-only identifier for a persisted
// Fact within one Session.
type FactID uint64

// Fact is a persisted triple or compound with provenance metadata.
type Fact struct {
	ID          FactID
	Expr        Expression
	Name        string   // persistent @name without the leading '@', empty if none
	Polarity    bool     // false when the top-level form is Not(P)
	Line        int      // source line, 0 if synthesized (e.g. rule-derived)
	RuleChain   []FactID // facts that produced this one via modus ponens, if any
	Fingerprint uint64   // content hash, used to reject duplicate facts

	// Meta carries component-specific payload for facts that are more
	// than a plain triple/compound (spec §3: "Plan / CspSolution. First-
	// class facts with metadata"). Populated by the session package for
	// `plan` and `cspSolution` facts; nil for every ordinary fact.
	Meta any
}

// IsEphemeral reports whether name should be dropped at the end of the
// current learn/prove/query call rather than persisted across the
// session (spec §3: names starting with an uppercase letter or an
// explicit ephemeral marker are not carried forward).
func IsEphemeral(name string) bool {
	if name == "" {
		return true
	}
	r := []rune(name)[0]
	return r >= 'A' && r <= 'Z'
}
