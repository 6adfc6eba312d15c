package gameserver

import (
	"sync"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/game/core"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/gamemaster"
)

// DefaultIdempotencyTTL is how long a SubmitMove outcome is replayed for a retried key.
const DefaultIdempotencyTTL = 5 * time.Minute

// entries beyond this trigger an expiry sweep on Store
const idempotencySweepSize = 1000

// idempotencyKey scopes a client key to one player of one game
type idempotencyKey struct {
	Game           gamemaster.GameID
	Player         core.PlayerID
	IdempotencyKey string
}

// Outcome is the result of a request as first answered.
type Outcome struct {
	Response *structpb.Struct
	Err      error
}

// idempotencyEntry stores a cached outcome with timestamp
type idempotencyEntry struct {
	outcome   Outcome
	createdAt time.Time
}

// IdempotencyManager replays the outcome of a SubmitMove whose key was seen before,
// so a retried request is not applied twice. Rejections are replayed as well.
type IdempotencyManager struct {
	cache map[idempotencyKey]*idempotencyEntry
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

// NewIdempotencyManager creates a manager; a non-positive ttl uses DefaultIdempotencyTTL.
func NewIdempotencyManager(ttl time.Duration) *IdempotencyManager {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyManager{
		cache: make(map[idempotencyKey]*idempotencyEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Check returns the cached outcome for the key. An empty key is never cached.
func (im *IdempotencyManager) Check(game gamemaster.GameID, player core.PlayerID, key string) (Outcome, bool) {
	if key == "" {
		return Outcome{}, false
	}

	im.mu.RLock()
	defer im.mu.RUnlock()

	entry, exists := im.cache[idempotencyKey{Game: game, Player: player, IdempotencyKey: key}]
	if !exists || im.now().Sub(entry.createdAt) > im.ttl {
		return Outcome{}, false
	}
	return entry.outcome, true
}

// transient reports whether err says nothing about the move itself, so a retry
// with the same key must run again.
func transient(err error) bool {
	switch status.Code(toStatus(err)) {
	case codes.Canceled, codes.DeadlineExceeded, codes.Unavailable, codes.Internal, codes.Unknown:
		return true
	}
	return false
}

// Store caches the outcome of a request. Transient failures are not cached.
func (im *IdempotencyManager) Store(game gamemaster.GameID, player core.PlayerID, key string, outcome Outcome) {
	if key == "" || (outcome.Err != nil && transient(outcome.Err)) {
		return
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	im.cache[idempotencyKey{Game: game, Player: player, IdempotencyKey: key}] = &idempotencyEntry{
		outcome:   outcome,
		createdAt: im.now(),
	}

	if len(im.cache) > idempotencySweepSize {
		im.cleanupOldEntriesLocked()
	}
}

// Len returns the number of cached outcomes, expired ones included.
func (im *IdempotencyManager) Len() int {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return len(im.cache)
}

// Sweep drops expired entries.
func (im *IdempotencyManager) Sweep() {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.cleanupOldEntriesLocked()
}

// cleanupOldEntriesLocked removes expired entries
// Must be called with mu held
func (im *IdempotencyManager) cleanupOldEntriesLocked() {
	cutoff := im.now().Add(-im.ttl)
	for key, entry := range im.cache {
		if entry.createdAt.Before(cutoff) {
			delete(im.cache, key)
		}
	}
}
