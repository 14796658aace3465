// Package vocabulary interns symbol names into stable IDs and owns the
// lazily-created HDC vector for each symbol. Mirrors the teacher's
// predicate/symbol interning in internal/mangle/engine.go, generalized
// to the spec's four symbol kinds.
package vocabulary

import (
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"

	"sys2kernel/internal/hdc"
)

// Kind classifies a symbol by its lexical form or by explicit operator
// declaration.
type Kind int

const (
	Constant Kind = iota
	Variable
	Reference
	Operator
)

func (k Kind) String() string {
	switch k {
	case Variable:
		return "Variable"
	case Reference:
		return "Reference"
	case Operator:
		return "Operator"
	default:
		return "Constant"
	}
}

// ID is a stable, non-zero identifier owned exclusively by a Vocabulary.
type ID uint64

// Symbol is a named constant, variable, reference, or operator.
type Symbol struct {
	ID   ID
	Name string
	Kind Kind
}

// Vocabulary interns symbol names, assigns stable IDs, and lazily
// allocates one HDC vector per symbol. It is append-only for the
// lifetime of a Session (spec §3 Lifecycle).
type Vocabulary struct {
	mu        sync.RWMutex
	strategy  hdc.Strategy
	logger    *zap.Logger
	byName    map[string]*Symbol
	byID      map[ID]*Symbol
	operators map[string]bool
	vectors   map[ID]hdc.Vector
	nextID    ID
}

// New constructs a Vocabulary backed by the given HDC strategy. A nil
// logger is replaced with a no-op logger, matching the teacher's
// optional-logger convention.
func New(strategy hdc.Strategy, logger *zap.Logger) *Vocabulary {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Vocabulary{
		strategy:  strategy,
		logger:    logger,
		byName:    make(map[string]*Symbol),
		byID:      make(map[ID]*Symbol),
		operators: make(map[string]bool),
		vectors:   make(map[ID]hdc.Vector),
		nextID:    1,
	}
}

// isIdentStart/isIdentPart implement the identifier lexeme from spec §6:
// [A-Za-z_][A-Za-z0-9_]*
func isIdentStart(r rune) bool { return unicode.IsLetter(r) || r == '_' }
func isIdentPart(r rune) bool  { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }

// Classify applies the lexical rules from spec §4.1: "?..." is a
// Variable, "$..." is a Reference, names in the operator registry are
// Operators, otherwise Constant.
func (v *Vocabulary) Classify(name string) Kind {
	if strings.HasPrefix(name, "?") {
		return Variable
	}
	if strings.HasPrefix(name, "$") {
		return Reference
	}
	v.mu.RLock()
	isOp := v.operators[name]
	v.mu.RUnlock()
	if isOp {
		return Operator
	}
	return Constant
}

// DeclareOperator marks name as an Operator going forward. Theories
// declare operators (and their tagged properties, handled one layer up
// in the reasoner/contradiction packages) before asserting facts that
// use them as the triple's operator slot.
func (v *Vocabulary) DeclareOperator(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.operators[name] = true
	if sym, ok := v.byName[name]; ok && sym.Kind != Operator {
		sym.Kind = Operator
	}
}

// GetOrCreate interns name, returning its existing ID or minting a new
// stable, non-zero one.
func (v *Vocabulary) GetOrCreate(name string) ID {
	v.mu.Lock()
	defer v.mu.Unlock()
	if sym, ok := v.byName[name]; ok {
		return sym.ID
	}
	kind := v.classifyLocked(name)
	id := v.nextID
	v.nextID++
	sym := &Symbol{ID: id, Name: name, Kind: kind}
	v.byName[name] = sym
	v.byID[id] = sym
	v.logger.Debug("interned symbol", zap.String("name", name), zap.Uint64("id", uint64(id)), zap.String("kind", kind.String()))
	return id
}

func (v *Vocabulary) classifyLocked(name string) Kind {
	if strings.HasPrefix(name, "?") {
		return Variable
	}
	if strings.HasPrefix(name, "$") {
		return Reference
	}
	if v.operators[name] {
		return Operator
	}
	return Constant
}

// Get resolves a symbol ID back to its Symbol.
func (v *Vocabulary) Get(id ID) (*Symbol, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	sym, ok := v.byID[id]
	return sym, ok
}

// Lookup resolves a name to its Symbol without interning it.
func (v *Vocabulary) Lookup(name string) (*Symbol, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	sym, ok := v.byName[name]
	return sym, ok
}

// Vector returns the symbol's HDC vector, computing and caching it on
// first request (spec §4.1).
func (v *Vocabulary) Vector(id ID) hdc.Vector {
	v.mu.Lock()
	defer v.mu.Unlock()
	if vec, ok := v.vectors[id]; ok {
		return vec
	}
	vec := v.strategy.SymbolVector(uint64(id))
	v.vectors[id] = vec
	return vec
}

// Strategy exposes the configured HDC strategy for components (Reasoner)
// that bind/bundle/similarity over symbol vectors directly.
func (v *Vocabulary) Strategy() hdc.Strategy {
	return v.strategy
}

// Count returns the number of interned symbols (for Session.Stats).
func (v *Vocabulary) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.byID)
}

// ValidIdentifier reports whether name matches spec §6's identifier
// lexeme, used by the parser to reject reserved/malformed names.
func ValidIdentifier(name string) bool {
	if name == "" {
		return false
	}
	runes := []rune(name)
	if !isIdentStart(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !isIdentPart(r) {
			return false
		}
	}
	return true
}
