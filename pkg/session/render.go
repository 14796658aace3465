package session

import (
	"fmt"
	"strings"

	"sys2kernel/internal/model"
	"sys2kernel/internal/vocabulary"
)

// renderFactSentence renders one fact as a human-readable sentence for
// Dump (spec §6): operator(arg1, arg2), "not " prefixed when the fact's
// polarity bit is false.
func renderFactSentence(vocab *vocabulary.Vocabulary, f *model.Fact) string {
	body := renderExpr(vocab, f.Expr)
	if !f.Polarity {
		return "not " + body
	}
	return body
}

func renderExpr(vocab *vocabulary.Vocabulary, e model.Expression) string {
	if e.Kind == model.ExprTriple {
		t := e.Triple
		return fmt.Sprintf("%s(%s, %s)", symName(vocab, t.Operator), renderArg(vocab, t.Arg1), renderArg(vocab, t.Arg2))
	}
	c := e.Compound
	switch c.Form {
	case model.FormNot:
		return "Not(" + renderExpr(vocab, c.Args[0]) + ")"
	case model.FormImplies:
		return "Implies(" + renderExpr(vocab, c.Args[0]) + ", " + renderExpr(vocab, c.Args[1]) + ")"
	default:
		parts := make([]string, len(c.Args))
		for i, a := range c.Args {
			parts[i] = renderExpr(vocab, a)
		}
		return c.Form.String() + "(" + strings.Join(parts, ", ") + ")"
	}
}

func renderArg(vocab *vocabulary.Vocabulary, a model.Arg) string {
	if a.Kind == model.ArgCompound {
		return fmt.Sprintf("#%d", a.CompoundID)
	}
	return symName(vocab, a.Symbol)
}

// DescribeResult renders a ProveResult to a one-line human summary. The
// step DAG (Sentence) stays the source of truth per spec §9; any
// further natural-language blending is an external layer's job, not
// duplicated here.
func DescribeResult(r ProveResult) string {
	switch {
	case r.Proven:
		if r.Sentence != "" {
			return "Proven: " + r.Sentence
		}
		return "Proven."
	case r.TimedOut:
		return "Timed out: " + r.FailureTrace
	case r.ProofInvalid:
		return "Proof invalidated on re-check: " + r.FailureTrace
	case r.Unknown:
		return "Unknown: " + r.FailureTrace
	default:
		return "Not proven: " + r.FailureTrace
	}
}
