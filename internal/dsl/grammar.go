// Package dsl tokenises and parses the strict-triple DSL (spec §4.3,
// §6). The inline compound-expression grammar (And/Or/Not/Implies,
// arbitrarily nested parentheses) is built with participle, the way
// holomush-holomush's internal/access/policy/dsl parses its ABAC policy
// language with a participle grammar and a hand-rolled lexer. The outer
// line/statement/block structure (comments, blank lines, @name
// bindings, Load/alias/synonym/retract directives, solve blocks) stays
// a line scanner: spec §4.3 describes it as a per-line classification
// problem, not a single recursive grammar.
package dsl

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// exprLexer tokenises the body of a single statement line. Order
// matters: parentheses must be recognised before the identifier rule
// would otherwise swallow them.
var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Ident", Pattern: `[?$@]?[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Term is one argument position: a bare word, or a parenthesised
// sub-expression (a nested compound or triple).
type Term struct {
	Pos   lexer.Position `parser:""`
	Word  string         `parser:"  @Ident"`
	Paren *Expr          `parser:"| '(' @@ ')'"`
}

// Expr is one head-plus-arguments form. A reserved head (And, Or, Not,
// Implies) makes it a compound; any other head makes it a strict triple
// once exactly two Args are present, per spec §1 "strict-triple DSL".
type Expr struct {
	Pos  lexer.Position `parser:""`
	Head string         `parser:"@Ident"`
	Args []*Term        `parser:"@@*"`
}

var exprParser = participle.MustBuild[Expr](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// reservedHeads are the compound form keywords; they cannot be used as
// operator names (spec §4.3 ParseError{ReservedName}).
var reservedHeads = map[string]bool{
	"And": true, "Or": true, "Not": true, "Implies": true,
}

// parseExprString parses one expression body (everything after an
// optional leading "@name" on a statement line).
func parseExprString(body string) (*Expr, error) {
	return exprParser.ParseString("", body)
}
