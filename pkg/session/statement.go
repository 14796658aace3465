package session

import (
	"strings"

	"sys2kernel/internal/dsl"
	"sys2kernel/internal/model"
	"sys2kernel/internal/store"
	"sys2kernel/internal/vocabulary"
)

// splitStatements breaks raw learn/prove/query input into one source
// chunk per statement, each independently feedable to Parser.Parse.
// This, not a single whole-text Parse call, is what lets an @name bound
// by an earlier statement in the same call resolve a later statement's
// $name: dsl.Parser.Parse does not itself call BindingEnv.Bind (see
// dsl/parser_test.go's two-call pattern), so the caller must parse,
// apply, and bind one statement at a time. A solve block's body lines
// ("key from value" ... "end") belong to their header's chunk.
func splitStatements(text string) []string {
	lines := strings.Split(text, "\n")
	var chunks []string
	for i := 0; i < len(lines); i++ {
		raw := lines[i]
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//") {
			continue
		}
		_, body := dsl.SplitBindName(trimmed)
		if dsl.IsSolveHeader(body) {
			block := []string{raw}
			i++
			for i < len(lines) {
				block = append(block, lines[i])
				done := strings.TrimSpace(lines[i]) == "end"
				i++
				if done {
					break
				}
			}
			i-- // outer loop's i++ advances past the last consumed line
			chunks = append(chunks, strings.Join(block, "\n")+"\n")
			continue
		}
		chunks = append(chunks, raw+"\n")
	}
	return chunks
}

// polarityOf unwraps a single top-level Not, matching model.Fact's
// "polarity bit (Not-wrapped form)" representation: Not(P) is stored as
// P with Polarity=false rather than as a literal Not compound, so the
// ContradictionDetector and Reasoner's exact-match lookups both see a
// plain triple/compound to index and compare against.
func polarityOf(e model.Expression) (model.Expression, bool) {
	if e.Kind == model.ExprCompound && e.Compound.Form == model.FormNot {
		return e.Compound.Operand(), false
	}
	return e, true
}

// matchingFactIDs finds every live fact whose expression structurally
// matches pattern (a Variable-kind symbol in pattern matches anything)
// and whose polarity agrees, for retract's "pattern selects a set"
// contract (spec §4.3).
func matchingFactIDs(s *store.FactStore, vocab *vocabulary.Vocabulary, pattern model.Expression) []model.FactID {
	target, polarity := polarityOf(pattern)
	var out []model.FactID
	if target.Kind == model.ExprTriple {
		p := patternFromGroundTriple(vocab, target.Triple)
		for _, f := range s.Facts(p) {
			if f.Polarity == polarity && structuralMatch(vocab, target, f.Expr) {
				out = append(out, f.ID)
			}
		}
		return out
	}
	for _, f := range s.CompoundFacts() {
		if f.Polarity == polarity && structuralMatch(vocab, target, f.Expr) {
			out = append(out, f.ID)
		}
	}
	return out
}

// patternFromGroundTriple builds a store.Pattern from a Triple whose
// argument symbols may be variables; a variable slot matches anything
// (spec §4.4 Pattern "Has*" semantics), used by retract's matcher.
func patternFromGroundTriple(vocab *vocabulary.Vocabulary, t model.Triple) store.Pattern {
	p := store.Pattern{Operator: t.Operator, HasOperator: true}
	p.HasArg1, p.Arg1 = groundArg(vocab, t.Arg1)
	p.HasArg2, p.Arg2 = groundArg(vocab, t.Arg2)
	return p
}

func groundArg(vocab *vocabulary.Vocabulary, a model.Arg) (bool, vocabulary.ID) {
	if a.Kind != model.ArgSymbol {
		return false, 0
	}
	if sym, ok := vocab.Get(a.Symbol); ok && sym.Kind == vocabulary.Variable {
		return false, 0
	}
	return true, a.Symbol
}

// structuralMatch compares a retract pattern against a stored
// expression, treating any Variable-kind symbol in pattern as a
// wildcard. It does not carry bindings across positions — two
// occurrences of the same variable are not required to resolve to the
// same value — which is sufficient for spec §4.4's "matcher" without
// pulling the full unifier into a plain-KB-lookup package.
func structuralMatch(vocab *vocabulary.Vocabulary, pattern, candidate model.Expression) bool {
	if pattern.Kind != candidate.Kind {
		return false
	}
	if pattern.Kind == model.ExprTriple {
		pt, ct := pattern.Triple, candidate.Triple
		if pt.Operator != ct.Operator {
			return false
		}
		return argMatches(vocab, pt.Arg1, ct.Arg1) && argMatches(vocab, pt.Arg2, ct.Arg2)
	}
	pc, cc := pattern.Compound, candidate.Compound
	if pc.Form != cc.Form || len(pc.Args) != len(cc.Args) {
		return false
	}
	for i := range pc.Args {
		if !structuralMatch(vocab, pc.Args[i], cc.Args[i]) {
			return false
		}
	}
	return true
}

func argMatches(vocab *vocabulary.Vocabulary, pattern, candidate model.Arg) bool {
	if pattern.Kind == model.ArgSymbol {
		if sym, ok := vocab.Get(pattern.Symbol); ok && sym.Kind == vocabulary.Variable {
			return true
		}
	}
	if pattern.Kind != candidate.Kind {
		return false
	}
	if pattern.Kind == model.ArgSymbol {
		return pattern.Symbol == candidate.Symbol
	}
	// Nested compound arguments (a triple slot holding a sub-And/Or/Not)
	// are rare enough in retract matchers that exact CompoundID identity
	// is the pragmatic check here; full structural recursion would need
	// the compound side-table, which argMatches does not have access to.
	return pattern.CompoundID == candidate.CompoundID
}
