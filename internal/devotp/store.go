// Package devotp keeps issued reset codes in memory so they can be read back
// over GET /dev/otp. Only wired when OTP_RETURN_TO_CLIENT is enabled outside production.
package devotp

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"account-service/internal/logging"
	"account-service/internal/notify"
)

// Store holds plain codes by identifier for dev-only retrieval.
type Store interface {
	// Put stores code for identifier until expiresAt, replacing any earlier entry.
	Put(ctx context.Context, identifier, code string, expiresAt time.Time)
	// Get returns the code for identifier if present and not expired.
	Get(ctx context.Context, identifier string) (code string, ok bool)
}

type entry struct {
	code      string
	expiresAt time.Time
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]entry
	nowF func() time.Time
}

// NewMemoryStore returns a new in-memory dev OTP store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[string]entry),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// normalize makes email lookups case-insensitive, matching how the reset flow resolves them.
func normalize(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return strings.ToLower(identifier)
	}
	return identifier
}

func (s *MemoryStore) Put(ctx context.Context, identifier, code string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[normalize(identifier)] = entry{code: code, expiresAt: expiresAt}
}

// Get returns the code if present and not expired. Expired entries are evicted.
func (s *MemoryStore) Get(ctx context.Context, identifier string) (string, bool) {
	key := normalize(identifier)
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if s.nowF().After(e.expiresAt) {
		s.mu.Lock()
		// A Put may have replaced the entry since the read lock was released.
		if cur, ok := s.m[key]; ok && s.nowF().After(cur.expiresAt) {
			delete(s.m, key)
		}
		s.mu.Unlock()
		return "", false
	}
	return e.code, true
}

// Sink is a notify.Deliverer that records codes in a Store instead of sending them.
type Sink struct {
	store Store
	ttl   time.Duration
	nowF  func() time.Time
	log   *zap.Logger
}

// NewSink returns a Sink that keeps each code for ttl.
func NewSink(store Store, ttl time.Duration, log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{store: store, ttl: ttl, nowF: func() time.Time { return time.Now().UTC() }, log: log}
}

// Deliver stores code under address. It never fails.
func (s *Sink) Deliver(ctx context.Context, channel notify.Channel, address, code string) error {
	s.store.Put(ctx, address, code, s.nowF().Add(s.ttl))
	s.log.Warn("dev otp mode: code kept in memory, not sent",
		zap.String("channel", string(channel)),
		zap.String("to", logging.MaskAddress(address)))
	return nil
}
