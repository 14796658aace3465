package session

import (
	"errors"
	"fmt"
	"os"

	"sys2kernel/internal/dsl"
	"sys2kernel/internal/model"
	"sys2kernel/internal/vocabulary"
)

// ApplyError is a per-statement learn failure, carrying the rejected
// statement's source line, its head operator (when known), and the
// underlying cause — spec §7's "rejected statement index + operator +
// cause" contract.
type ApplyError struct {
	Line     int
	Operator string
	Cause    string
	Err      error
}

func (e *ApplyError) Error() string {
	if e.Operator != "" {
		return fmt.Sprintf("line %d (%s): %s", e.Line, e.Operator, e.Cause)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Cause)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// LearnResult is Learn's outcome (spec §4.2/§7).
type LearnResult struct {
	Success    bool
	FactsAdded int
	Warnings   []string
	RejectedAt int    // source line of the statement that aborted the call, 0 if Success
	Operator   string // the rejected statement's head operator, if any
	Cause      string
}

// Learn parses and applies text as one atomic unit (spec §4.2): every
// statement commits, or the whole call leaves the store exactly as it
// was before. Each statement commits through its own Tx as soon as it
// is parsed (so a `solve` block sees everything an earlier statement in
// the same call already asserted, and a later `$name` can reference an
// earlier `@name`), and internal/store.FactStore.Atomic wraps the whole
// loop to give the call its all-or-nothing guarantee on top of that.
func (s *Session) Learn(text string) LearnResult {
	env := s.seedEnv()
	added := 0

	err := s.store.Atomic(func() error {
		for _, chunk := range splitStatements(text) {
			stmts, perr := s.parser.Parse(chunk, env)
			if perr != nil {
				return perr
			}
			for _, stmt := range stmts {
				n, aerr := s.applyStatement(stmt, env)
				if aerr != nil {
					return aerr
				}
				added += n
			}
		}
		return nil
	})

	if err != nil {
		var ae *ApplyError
		if errors.As(err, &ae) {
			return LearnResult{RejectedAt: ae.Line, Operator: ae.Operator, Cause: ae.Cause}
		}
		var pe *dsl.ParseError
		if errors.As(err, &pe) {
			return LearnResult{RejectedAt: pe.Line, Cause: pe.Error()}
		}
		return LearnResult{Cause: err.Error()}
	}

	return LearnResult{Success: true, FactsAdded: added}
}

// applyStatement commits one parsed statement and records any @name
// binding it introduces.
func (s *Session) applyStatement(stmt dsl.Statement, env *dsl.BindingEnv) (int, error) {
	switch stmt.Kind {
	case dsl.StmtFact:
		return s.applyFact(stmt, env)
	case dsl.StmtAlias:
		return s.applyAlias(stmt, false)
	case dsl.StmtSynonym:
		return s.applyAlias(stmt, true)
	case dsl.StmtRetract:
		return s.applyRetract(stmt)
	case dsl.StmtLoad:
		return s.applyLoad(stmt, env)
	case dsl.StmtSolve:
		return s.applySolve(stmt, env)
	default:
		return 0, &ApplyError{Line: stmt.Line, Cause: "unrecognised statement kind"}
	}
}

func (s *Session) applyFact(stmt dsl.Statement, env *dsl.BindingEnv) (int, error) {
	expr, polarity := polarityOf(stmt.Expr)
	fact := &model.Fact{Expr: expr, Name: stmt.BindName, Polarity: polarity, Line: stmt.Line}

	tx := s.store.Begin()
	tx.Assert(fact)
	if err := tx.Commit(); err != nil {
		return 0, &ApplyError{Line: stmt.Line, Operator: operatorName(s.vocab, expr), Cause: err.Error(), Err: err}
	}
	if stmt.BindName != "" {
		env.Bind(stmt.BindName, tx.CommittedIDs()[0])
	}
	return 1, nil
}

func (s *Session) applyAlias(stmt dsl.Statement, bidi bool) (int, error) {
	tx := s.store.Begin()
	if bidi {
		tx.Synonym(stmt.AliasFrom, stmt.AliasTo)
	} else {
		tx.Alias(stmt.AliasFrom, stmt.AliasTo)
	}
	if err := tx.Commit(); err != nil {
		return 0, &ApplyError{Line: stmt.Line, Operator: "alias", Cause: err.Error(), Err: err}
	}
	return 0, nil
}

func (s *Session) applyRetract(stmt dsl.Statement) (int, error) {
	ids := matchingFactIDs(s.store, s.vocab, stmt.Expr)
	if len(ids) == 0 {
		return 0, nil
	}
	tx := s.store.Begin()
	tx.Retract(ids)
	if err := tx.Commit(); err != nil {
		return 0, &ApplyError{Line: stmt.Line, Operator: "retract", Cause: err.Error(), Err: err}
	}
	return -len(ids), nil
}

func (s *Session) applyLoad(stmt dsl.Statement, env *dsl.BindingEnv) (int, error) {
	data, err := os.ReadFile(stmt.LoadPath)
	if err != nil {
		return 0, &ApplyError{Line: stmt.Line, Operator: "Load", Cause: err.Error(), Err: err}
	}
	added := 0
	for _, chunk := range splitStatements(string(data)) {
		stmts, perr := s.parser.Parse(chunk, env)
		if perr != nil {
			return added, &ApplyError{Line: stmt.Line, Operator: "Load", Cause: stmt.LoadPath + ": " + perr.Error(), Err: perr}
		}
		for _, sub := range stmts {
			n, aerr := s.applyStatement(sub, env)
			if aerr != nil {
				return added, aerr
			}
			added += n
		}
	}
	return added, nil
}

func operatorName(vocab *vocabulary.Vocabulary, e model.Expression) string {
	if e.Kind == model.ExprTriple {
		return symName(vocab, e.Triple.Operator)
	}
	if e.Compound != nil {
		return e.Compound.Form.String()
	}
	return ""
}
