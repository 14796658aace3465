package model

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
)

// Fingerprint computes a content hash over a canonicalized expression
// (operator/variable IDs already alias-rewritten by the caller) plus its
// polarity, used by FactStore to detect duplicate facts (spec §3:
// "no two live facts share a fingerprint"). Compounds hash recursively
// through their inline Args so two structurally identical Implies/And/Or
// trees collide regardless of which CompoundID they were assigned.
func Fingerprint(expr Expression, polarity bool) uint64 {
	h := fnv.New64a()
	if polarity {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	writeExpr(h, expr)
	return h.Sum64()
}

func writeExpr(h hash.Hash64, e Expression) {
	if e.Kind == ExprTriple {
		h.Write([]byte{byte(ExprTriple)})
		writeArg(h, SymbolArg(e.Triple.Operator))
		writeArg(h, e.Triple.Arg1)
		writeArg(h, e.Triple.Arg2)
		return
	}
	h.Write([]byte{byte(ExprCompound)})
	c := e.Compound
	if c == nil {
		return
	}
	h.Write([]byte{byte(c.Form)})
	for _, child := range c.Args {
		writeExpr(h, child)
	}
}

func writeArg(h hash.Hash64, a Arg) {
	var buf [9]byte
	buf[0] = byte(a.Kind)
	if a.Kind == ArgSymbol {
		binary.BigEndian.PutUint64(buf[1:], uint64(a.Symbol))
	} else {
		binary.BigEndian.PutUint64(buf[1:], uint64(a.CompoundID))
	}
	h.Write(buf[:])
}
