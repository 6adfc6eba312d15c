package gamemaster

import "sync/atomic"

// GameID identifies a session.
type GameID uint64

// IDGenerator issues candidate session ids. The GameMaster skips ids that are still
// in use, so a generator only has to be safe for concurrent use.
type IDGenerator interface {
	Next() GameID
}

// SequentialIDs counts up from 1 and wraps to 0 after the largest uint64.
type SequentialIDs struct {
	last atomic.Uint64
}

// NewSequentialIDs returns a generator whose first id is start+1.
func NewSequentialIDs(start uint64) *SequentialIDs {
	g := &SequentialIDs{}
	g.last.Store(start)
	return g
}

// Next returns the next id.
func (g *SequentialIDs) Next() GameID {
	return GameID(g.last.Add(1))
}
