// Package redemption issues and redeems one-time coupon codes, one per
// (flyer, user) pair.
package redemption

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/flyerhub/internal/domain/model"
)

type pairKey struct {
	flyerID string
	userID  string
}

// Ledger stores redemption codes keyed by (flyerID, userID).
// All methods are safe for concurrent use.
type Ledger struct {
	mu     sync.Mutex
	byPair map[pairKey]*model.RedemptionCode
	byID   map[string]*model.RedemptionCode
	order  []*model.RedemptionCode // insertion order, kept for snapshots

	now    func() time.Time
	newID  func() string
	random io.Reader
}

// NewLedger creates an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		byPair: make(map[pairKey]*model.RedemptionCode),
		byID:   make(map[string]*model.RedemptionCode),
		now:    time.Now,
		newID:  uuid.NewString,
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// GenerateCode returns the code for (flyerID, userID), minting one on first
// request. created is false when an existing code was returned unchanged.
func (l *Ledger) GenerateCode(_ context.Context, flyerID, userID string) (code model.RedemptionCode, created bool, err error) {
	if strings.TrimSpace(flyerID) == "" || strings.TrimSpace(userID) == "" {
		return model.RedemptionCode{}, false, fmt.Errorf("%w: flyerId and userId are required", model.ErrInvalidArgument)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := pairKey{flyerID: flyerID, userID: userID}
	if existing, ok := l.byPair[key]; ok {
		return clone(existing), false, nil
	}

	value, err := NewCode(l.random)
	if err != nil {
		return model.RedemptionCode{}, false, err
	}
	rc := &model.RedemptionCode{
		ID:      l.newID(),
		FlyerID: flyerID,
		UserID:  userID,
		Code:    value,
	}
	l.insert(rc)
	return clone(rc), true, nil
}

// Redeem marks the code with id as redeemed. Unknown ids and codes that are
// already redeemed are left alone; the return value reports whether anything
// changed.
func (l *Ledger) Redeem(_ context.Context, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rc, ok := l.byID[id]
	if !ok || rc.IsRedeemed {
		return false
	}
	at := l.now().UTC()
	rc.IsRedeemed = true
	rc.RedeemedAt = &at
	return true
}

// Get looks up the code for (flyerID, userID).
func (l *Ledger) Get(_ context.Context, flyerID, userID string) (model.RedemptionCode, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rc, ok := l.byPair[pairKey{flyerID: flyerID, userID: userID}]
	if !ok {
		return model.RedemptionCode{}, false
	}
	return clone(rc), true
}

// ByID looks up a code by its id.
func (l *Ledger) ByID(_ context.Context, id string) (model.RedemptionCode, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rc, ok := l.byID[id]
	if !ok {
		return model.RedemptionCode{}, false
	}
	return clone(rc), true
}

// Len returns the number of codes issued.
func (l *Ledger) Len(_ context.Context) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}

// Snapshot returns every code in issue order.
func (l *Ledger) Snapshot(_ context.Context) []model.RedemptionCode {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.RedemptionCode, len(l.order))
	for i, rc := range l.order {
		out[i] = clone(rc)
	}
	return out
}

// Restore replaces the ledger contents with codes. When two records share a
// (flyerId, userId) pair or an id, the first one wins.
func (l *Ledger) Restore(_ context.Context, codes []model.RedemptionCode) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.byPair = make(map[pairKey]*model.RedemptionCode, len(codes))
	l.byID = make(map[string]*model.RedemptionCode, len(codes))
	l.order = make([]*model.RedemptionCode, 0, len(codes))
	for i := range codes {
		rc := clone(&codes[i])
		if _, dup := l.byPair[pairKey{flyerID: rc.FlyerID, userID: rc.UserID}]; dup {
			continue
		}
		if _, dup := l.byID[rc.ID]; dup {
			continue
		}
		l.insert(&rc)
	}
}

// insert must be called with l.mu held.
func (l *Ledger) insert(rc *model.RedemptionCode) {
	l.byPair[pairKey{flyerID: rc.FlyerID, userID: rc.UserID}] = rc
	l.byID[rc.ID] = rc
	l.order = append(l.order, rc)
}

func clone(rc *model.RedemptionCode) model.RedemptionCode {
	out := *rc
	if rc.RedeemedAt != nil {
		at := *rc.RedeemedAt
		out.RedeemedAt = &at
	}
	return out
}
