package dsl

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"sys2kernel/internal/model"
	"sys2kernel/internal/vocabulary"
)

// ErrorKind enumerates the parse failure kinds from spec §4.3.
type ErrorKind int

const (
	SyntaxInvalid ErrorKind = iota
	UnresolvedReference
	CyclicReference
	ReservedName
)

func (k ErrorKind) String() string {
	switch k {
	case UnresolvedReference:
		return "UnresolvedReference"
	case CyclicReference:
		return "CyclicReference"
	case ReservedName:
		return "ReservedName"
	default:
		return "SyntaxInvalid"
	}
}

// ParseError is the error type returned for any DSL parse failure.
type ParseError struct {
	Kind ErrorKind
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at line %d: %s", e.Kind, e.Line, e.Msg)
}

// StatementKind classifies one parsed line/block.
type StatementKind int

const (
	StmtFact StatementKind = iota
	StmtAlias
	StmtSynonym
	StmtRetract
	StmtLoad
	StmtSolve
)

// Statement is one compiled unit of input, carrying everything
// Session/FactStore need to apply it (spec §4.3).
type Statement struct {
	Kind StatementKind
	Line int

	// BindName is the @name this statement binds, without the '@', or
	// empty if unbound.
	BindName string

	// Expr is populated for StmtFact and StmtRetract (the pattern to
	// remove, which may contain variables).
	Expr model.Expression

	// AliasFrom/AliasTo are populated for StmtAlias/StmtSynonym.
	AliasFrom, AliasTo string

	// LoadPath is populated for StmtLoad.
	LoadPath string

	// Solve* are populated for StmtSolve.
	SolveKind   string // "planning" | "csp"
	SolveParams []SolveParam
}

// SolveParam is one "key from value" line inside a solve block, kept in
// source order since repeated keys (multiple "start from") are
// meaningful (spec §4.8).
type SolveParam struct {
	Key   string
	Value string
}

// BindingEnv maps a binding name (without '@'/'$') to the FactID it was
// bound to, per spec §3 "Binding environment". Session seeds it with
// previously persisted (lowercase-initial) bindings before each call and
// reads back the updated ephemeral+persistent set afterward.
type BindingEnv struct {
	byName map[string]model.FactID
}

// NewBindingEnv returns an empty environment.
func NewBindingEnv() *BindingEnv {
	return &BindingEnv{byName: make(map[string]model.FactID)}
}

// Bind records name -> id.
func (e *BindingEnv) Bind(name string, id model.FactID) { e.byName[name] = id }

// Resolve looks up a previously bound name.
func (e *BindingEnv) Resolve(name string) (model.FactID, bool) {
	id, ok := e.byName[name]
	return id, ok
}

// Parser tokenises DSL text into a Statement stream. One Parser instance
// is owned by a Session for its whole lifetime so the compound-ID
// counter and vocabulary interning stay consistent across learn/prove/
// query calls.
type Parser struct {
	vocab      *vocabulary.Vocabulary
	nextCompID model.CompoundID
}

// NewParser constructs a Parser backed by the given Vocabulary.
func NewParser(vocab *vocabulary.Vocabulary) *Parser {
	return &Parser{vocab: vocab, nextCompID: 1}
}

// Parse tokenises text into a Statement stream, resolving $name
// references against env and updating env as @name bindings are seen.
// Statements are returned in source order (spec §5 ordering guarantee).
func (p *Parser) Parse(text string, env *BindingEnv) ([]Statement, error) {
	var stmts []Statement
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "alias ") || strings.HasPrefix(line, "synonym ") {
			stmt, err := p.parseAliasLine(line, lineNo)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
			continue
		}
		if strings.HasPrefix(line, "Load ") {
			path := strings.TrimSpace(line[len("Load "):])
			stmts = append(stmts, Statement{Kind: StmtLoad, Line: lineNo, LoadPath: path})
			continue
		}
		if strings.HasPrefix(line, "retract ") {
			stmt, err := p.parseRetractLine(line, lineNo, env)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
			continue
		}

		bindName, body := splitBindName(line)

		if isSolveHeader(body) {
			stmt, consumed, err := p.parseSolveBlock(bindName, body, scanner, lineNo)
			if err != nil {
				return nil, err
			}
			lineNo += consumed
			stmts = append(stmts, stmt)
			continue
		}

		expr, err := p.parseExpression(body, lineNo, env, bindName)
		if err != nil {
			return nil, err
		}
		stmt := Statement{Kind: StmtFact, Line: lineNo, BindName: bindName, Expr: expr}
		stmts = append(stmts, stmt)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Kind: SyntaxInvalid, Line: lineNo, Msg: err.Error()}
	}
	return stmts, nil
}

// splitBindName extracts a leading "@name " binding introducer, if any.
func splitBindName(line string) (bindName, rest string) {
	if !strings.HasPrefix(line, "@") {
		return "", line
	}
	fields := strings.SplitN(line, " ", 2)
	name := strings.TrimPrefix(fields[0], "@")
	if len(fields) == 1 {
		return name, ""
	}
	return name, strings.TrimSpace(fields[1])
}

func isSolveHeader(body string) bool {
	return strings.HasPrefix(body, "solve ")
}

// SplitBindName exposes splitBindName to callers (Session) that must
// find a statement's extent — in particular a solve block's "end" —
// before handing that one statement's source text to Parse.
func SplitBindName(line string) (bindName, rest string) { return splitBindName(line) }

// IsSolveHeader reports whether body (the post-bindname remainder of a
// line) opens a solve block.
func IsSolveHeader(body string) bool { return isSolveHeader(body) }

func (p *Parser) parseAliasLine(line string, lineNo int) (Statement, error) {
	kind := StmtAlias
	rest := strings.TrimPrefix(line, "alias ")
	if strings.HasPrefix(line, "synonym ") {
		kind = StmtSynonym
		rest = strings.TrimPrefix(line, "synonym ")
	}
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return Statement{}, &ParseError{Kind: SyntaxInvalid, Line: lineNo, Msg: "alias/synonym requires exactly two names"}
	}
	return Statement{Kind: kind, Line: lineNo, AliasFrom: fields[0], AliasTo: fields[1]}, nil
}

func (p *Parser) parseRetractLine(line string, lineNo int, env *BindingEnv) (Statement, error) {
	body := strings.TrimSpace(strings.TrimPrefix(line, "retract "))
	expr, err := p.parseExpression(body, lineNo, env, "")
	if err != nil {
		return Statement{}, err
	}
	return Statement{Kind: StmtRetract, Line: lineNo, Expr: expr}, nil
}

// parseExpression parses one expression body and lowers it into the
// model's tagged-variant Expression, interning symbols along the way and
// resolving $references against env. bindName, if non-empty, guards
// against a same-statement reference cycle (spec §4.3 CyclicReference).
func (p *Parser) parseExpression(body string, lineNo int, env *BindingEnv, bindName string) (model.Expression, error) {
	if body == "" {
		return model.Expression{}, &ParseError{Kind: SyntaxInvalid, Line: lineNo, Msg: "empty statement body"}
	}
	ast, err := parseExprString(body)
	if err != nil {
		return model.Expression{}, &ParseError{Kind: SyntaxInvalid, Line: lineNo, Msg: err.Error()}
	}
	return p.convert(ast, lineNo, env, bindName)
}

func (p *Parser) convert(e *Expr, lineNo int, env *BindingEnv, bindName string) (model.Expression, error) {
	switch e.Head {
	case "And":
		return p.convertCompound(model.FormAnd, e.Args, lineNo, env, bindName, -1)
	case "Or":
		return p.convertCompound(model.FormOr, e.Args, lineNo, env, bindName, -1)
	case "Not":
		return p.convertCompound(model.FormNot, e.Args, lineNo, env, bindName, 1)
	case "Implies":
		return p.convertCompound(model.FormImplies, e.Args, lineNo, env, bindName, 2)
	default:
		if reservedHeads[e.Head] {
			return model.Expression{}, &ParseError{Kind: ReservedName, Line: lineNo, Msg: "reserved word used as operator: " + e.Head}
		}
		if len(e.Args) != 2 {
			return model.Expression{}, &ParseError{Kind: SyntaxInvalid, Line: lineNo,
				Msg: fmt.Sprintf("strict triple %q requires exactly 2 arguments, got %d", e.Head, len(e.Args))}
		}
		arg1, err := p.convertTerm(e.Args[0], lineNo, env, bindName)
		if err != nil {
			return model.Expression{}, err
		}
		arg2, err := p.convertTerm(e.Args[1], lineNo, env, bindName)
		if err != nil {
			return model.Expression{}, err
		}
		op := p.vocab.GetOrCreate(e.Head)
		return model.TripleExpr(model.Triple{Operator: op, Arg1: arg1, Arg2: arg2}), nil
	}
}

func (p *Parser) convertCompound(form model.CompoundForm, args []*Term, lineNo int, env *BindingEnv, bindName string, wantArgs int) (model.Expression, error) {
	if wantArgs >= 0 && len(args) != wantArgs {
		return model.Expression{}, &ParseError{Kind: SyntaxInvalid, Line: lineNo,
			Msg: fmt.Sprintf("%s requires exactly %d argument(s), got %d", form, wantArgs, len(args))}
	}
	if wantArgs < 0 && len(args) == 0 {
		return model.Expression{}, &ParseError{Kind: SyntaxInvalid, Line: lineNo, Msg: fmt.Sprintf("%s requires at least one argument", form)}
	}
	children := make([]model.Expression, 0, len(args))
	for _, a := range args {
		child, err := p.convertTermExpr(a, lineNo, env, bindName)
		if err != nil {
			return model.Expression{}, err
		}
		children = append(children, child)
	}
	id := p.nextCompID
	p.nextCompID++
	return model.CompoundExpr(&model.Compound{ID: id, Form: form, Args: children}), nil
}

// convertTermExpr converts a Term that stands for a full sub-expression
// (a compound operand, e.g. Not's argument) rather than a bare triple
// argument slot.
func (p *Parser) convertTermExpr(t *Term, lineNo int, env *BindingEnv, bindName string) (model.Expression, error) {
	if t.Paren != nil {
		return p.convert(t.Paren, lineNo, env, bindName)
	}
	// A bare word standing alone as a compound child must itself be a
	// complete ground/variable triple; the grammar only gets here when a
	// whole parenthesised triple was omitted, which is invalid.
	return model.Expression{}, &ParseError{Kind: SyntaxInvalid, Line: lineNo,
		Msg: "compound argument must be a parenthesised expression, got bare word: " + t.Word}
}

// convertTerm converts a Term that stands for a Triple's argument slot:
// either a symbol (constant/variable/reference) or a nested compound.
func (p *Parser) convertTerm(t *Term, lineNo int, env *BindingEnv, bindName string) (model.Arg, error) {
	if t.Paren != nil {
		expr, err := p.convert(t.Paren, lineNo, env, bindName)
		if err != nil {
			return model.Arg{}, err
		}
		if expr.Kind == model.ExprTriple {
			return model.Arg{}, &ParseError{Kind: SyntaxInvalid, Line: lineNo, Msg: "nested triple arguments are not supported; only compound (And/Or/Not/Implies) nesting is"}
		}
		return model.CompoundArg(expr.Compound.ID), nil
	}
	return p.convertWord(t.Word, lineNo, env, bindName)
}

func (p *Parser) convertWord(word string, lineNo int, env *BindingEnv, bindName string) (model.Arg, error) {
	if strings.HasPrefix(word, "$") {
		name := strings.TrimPrefix(word, "$")
		if bindName != "" && name == bindName {
			return model.Arg{}, &ParseError{Kind: CyclicReference, Line: lineNo, Msg: "@" + bindName + " cannot reference itself via $" + name}
		}
		if _, ok := env.Resolve(name); !ok {
			return model.Arg{}, &ParseError{Kind: UnresolvedReference, Line: lineNo, Msg: "unresolved reference $" + name}
		}
		id := p.vocab.GetOrCreate(word)
		return model.SymbolArg(id), nil
	}
	if reservedHeads[word] {
		return model.Arg{}, &ParseError{Kind: ReservedName, Line: lineNo, Msg: "reserved word used as argument: " + word}
	}
	id := p.vocab.GetOrCreate(word)
	return model.SymbolArg(id), nil
}

// parseSolveBlock consumes lines up to and including "end" from scanner,
// parsing "key from value" body lines (spec §4.3/§4.8/§4.9). Returns the
// number of extra lines consumed beyond the header.
func (p *Parser) parseSolveBlock(bindName, header string, scanner *bufio.Scanner, headerLine int) (Statement, int, error) {
	fields := strings.Fields(header)
	if len(fields) != 2 {
		return Statement{}, 0, &ParseError{Kind: SyntaxInvalid, Line: headerLine, Msg: "solve header must be 'solve <kind>'"}
	}
	kind := fields[1]
	if kind != "planning" && kind != "csp" {
		return Statement{}, 0, &ParseError{Kind: SyntaxInvalid, Line: headerLine, Msg: "unknown solve kind: " + kind}
	}

	var params []SolveParam
	consumed := 0
	for scanner.Scan() {
		consumed++
		raw := scanner.Text()
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		if line == "end" {
			return Statement{
				Kind: StmtSolve, Line: headerLine, BindName: bindName,
				SolveKind: kind, SolveParams: params,
			}, consumed, nil
		}
		parts := strings.SplitN(line, " from ", 2)
		if len(parts) != 2 {
			return Statement{}, 0, &ParseError{Kind: SyntaxInvalid, Line: headerLine + consumed, Msg: "solve block body line must be 'key from value'"}
		}
		params = append(params, SolveParam{Key: strings.TrimSpace(parts[0]), Value: strings.TrimSpace(parts[1])})
	}
	return Statement{}, consumed, &ParseError{Kind: SyntaxInvalid, Line: headerLine, Msg: "unterminated solve block, expected 'end'"}
}

// ParamInt parses a SolveParam's value as an int, used for maxDepth.
func ParamInt(v string) (int, error) {
	return strconv.Atoi(v)
}
