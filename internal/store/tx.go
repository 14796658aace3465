package store

import (
	"github.com/samber/oops"

	"sys2kernel/internal/model"
)

// Tx is a buffered write set. All mutation happens through begin/commit/
// abort so that learn's atomicity guarantee (spec §4.4: "either every
// statement in the input is committed, or none is") holds even though
// the underlying maps are mutated in place on commit.
type Tx struct {
	store *FactStore

	asserted   []*model.Fact
	retracted  []model.FactID
	newAliases []aliasEdge
	closed     bool

	committed []model.FactID
}

type aliasEdge struct {
	from, to string
	bidi     bool
}

// Begin opens a new transaction against this store.
func (s *FactStore) Begin() *Tx {
	return &Tx{store: s}
}

// Assert buffers a fact for insertion. Canonicalisation (alias rewrite)
// and contradiction checking both happen at Commit time, once the full
// write set — including any aliases installed earlier in the same
// transaction — is known.
func (tx *Tx) Assert(f *model.Fact) {
	tx.asserted = append(tx.asserted, f)
}

// Retract buffers a matcher-selected set of live FactIDs for removal.
func (tx *Tx) Retract(ids []model.FactID) {
	tx.retracted = append(tx.retracted, ids...)
}

// Alias buffers a one-directional canonicalising rewrite: x -> y.
func (tx *Tx) Alias(x, y string) {
	tx.newAliases = append(tx.newAliases, aliasEdge{from: x, to: y})
}

// Synonym buffers a bidirectional rewrite, x <-> y, collapsing both
// names to whichever canonical representative the alias table assigns.
func (tx *Tx) Synonym(x, y string) {
	tx.newAliases = append(tx.newAliases, aliasEdge{from: x, to: y, bidi: true})
}

// Commit applies the buffered write set atomically: aliases install
// first (so newly asserted facts canonicalise against them), then
// retractions, then assertions each pass the ContradictionChecker. Any
// failure rolls the whole Tx back and returns the error untouched —
// Session.learn propagates it as a learn-level error per spec §7.
func (tx *Tx) Commit() error {
	if tx.closed {
		return oops.Code("TxAlreadyClosed").Errorf("transaction already committed or aborted")
	}
	tx.closed = true
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshotLocked()
	if err := s.applyTxLocked(tx); err != nil {
		s.restoreLocked(snap)
		return err
	}
	return nil
}

// applyTxLocked performs the write set in place. Any returned error
// leaves the store mutated; Commit restores the pre-call snapshot in
// that case, which is what makes the whole operation atomic.
func (s *FactStore) applyTxLocked(tx *Tx) error {
	for _, e := range tx.newAliases {
		if err := s.aliases.install(s.vocab, e.from, e.to, e.bidi); err != nil {
			return oops.Code("AliasCycle").
				With("from", e.from).With("to", e.to).
				Wrap(err)
		}
	}

	for _, id := range tx.retracted {
		s.removeLocked(id)
	}

	committed := make([]model.FactID, len(tx.asserted))
	staged := make([]*model.Fact, 0, len(tx.asserted))
	for i, f := range tx.asserted {
		f.Expr = s.canonicalizeExprLocked(f.Expr)
		f.Fingerprint = model.Fingerprint(f.Expr, f.Polarity)

		if existing, dup := s.fp[f.Fingerprint]; dup {
			if _, alive := s.facts[existing]; alive {
				committed[i] = existing // idempotent re-assertion of an already-live fact
				continue
			}
		}

		if s.maxFacts > 0 && len(s.facts)+len(staged) >= s.maxFacts {
			return oops.Code("FactLimitExceeded").
				With("limit", s.maxFacts).
				Errorf("fact store at capacity (%d facts): rejecting new fact", s.maxFacts)
		}

		res := s.checker.Check(s, tx, f)
		if !res.Ok {
			return oops.Code("ContradictionRejected").
				With("reason", res.Reason).
				With("cause", res.Cause).
				Errorf("fact contradicts the knowledge base: %s", res.Reason)
		}
		staged = append(staged, f)
	}

	if len(tx.newAliases) > 0 {
		s.rewriteAllOnAliasChangeLocked()
	}

	for _, f := range staged {
		s.insertLocked(f)
	}
	// staged members are the same pointers as their tx.asserted entries,
	// so f.ID is now populated for every index committed left at zero.
	for i, f := range tx.asserted {
		if committed[i] == 0 {
			committed[i] = f.ID
		}
	}
	tx.committed = committed

	return nil
}

// CommittedIDs returns, parallel to the Assert calls made on this Tx,
// the live FactID each one resolved to — the newly inserted fact's own
// ID, or the ID of the already-live fact an idempotent re-assertion
// matched. Valid only after a successful Commit.
func (tx *Tx) CommittedIDs() []model.FactID { return tx.committed }

// Abort discards the buffered write set; the store is left untouched.
func (tx *Tx) Abort() {
	tx.closed = true
	tx.asserted = nil
	tx.retracted = nil
	tx.newAliases = nil
}

// Atomic snapshots the store, runs fn, and restores the pre-call state
// verbatim if fn returns an error. A solve block inside one learn call
// needs to see the facts earlier statements in the same call already
// committed — so Session commits each statement through its own Tx as
// it goes rather than buffering the whole call in one Tx — but spec
// §3/§8 still requires the whole call to be all-or-nothing. Atomic
// gives Session that outer guarantee on top of the per-statement Tx
// commits, the same snapshot/restore machinery Tx.Commit already uses.
func (s *FactStore) Atomic(fn func() error) error {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := fn(); err != nil {
		s.mu.Lock()
		s.restoreLocked(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

// Names returns a copy of the persistent @name -> FactID bindings live
// in the store, used by Session to seed a fresh BindingEnv at the start
// of each learn/prove/query call (spec §3: lowercase-initial names
// "persist across the session").
func (s *FactStore) Names() map[string]model.FactID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.FactID, len(s.names))
	for k, v := range s.names {
		out[k] = v
	}
	return out
}
