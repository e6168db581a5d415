package cart

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"clam-storefront/internal/logger"
)

// Session is one owner's cart and wishlist.
type Session struct {
	ID       string
	Cart     *Cart
	Wishlist *Wishlist
}

func (s *Session) record() Record {
	return Record{Cart: s.Cart.Snapshot(), Wishlist: s.Wishlist.Items()}
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

// Sessions hands out the live Session for an owner id. Recently used
// sessions stay in memory; the rest are restored from the Store on demand.
// Every access to one owner's session runs under that owner's lock, from
// load through save, so an owner never has two live copies.
type Sessions struct {
	mu      sync.Mutex
	locks   map[string]*ownerLock
	pricing Pricing
	store   Store
	live    *lru.Cache
}

func NewSessions(pricing Pricing, store Store, size int) (*Sessions, error) {
	live, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "session cache")
	}
	return &Sessions{
		locks:   map[string]*ownerLock{},
		pricing: pricing,
		store:   store,
		live:    live,
	}, nil
}

// lock takes id's owner lock and returns its release.
func (s *Sessions) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &ownerLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// load returns the live session for id, restoring it from the store or
// creating an empty one. The caller holds id's owner lock.
func (s *Sessions) load(ctx context.Context, id string) (*Session, error) {
	if v, ok := s.live.Get(id); ok {
		return v.(*Session), nil
	}

	sess := &Session{ID: id, Cart: New(s.pricing), Wishlist: NewWishlist()}
	rec, err := s.store.Load(ctx, id)
	switch {
	case errors.Is(err, ErrNoRecord):
	case err != nil:
		return nil, err
	default:
		if err := sess.Cart.Restore(rec.Cart); err != nil {
			logger.Warnf("session %s: %v", id, err)
		}
		sess.Wishlist = NewWishlist(rec.Wishlist...)
	}

	s.live.Add(id, sess)
	return sess, nil
}

// View runs fn on id's session without saving it.
func (s *Sessions) View(ctx context.Context, id string, fn func(*Session) error) error {
	release := s.lock(id)
	defer release()

	sess, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return fn(sess)
}

// Do runs fn on id's session and saves the result when fn succeeds. Load,
// fn and save all happen under id's owner lock. If the save fails the
// live copy is dropped so the next access reloads what the store holds.
func (s *Sessions) Do(ctx context.Context, id string, fn func(*Session) error) error {
	ctx, span := tracer.Start(ctx, "cart.Sessions.Do")
	defer span.End()
	span.SetAttributes(attribute.String("cart.session", id))

	release := s.lock(id)
	defer release()

	sess, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := fn(sess); err != nil {
		return err
	}
	if err := s.store.Save(ctx, id, sess.record()); err != nil {
		s.live.Remove(id)
		span.RecordError(err)
		return err
	}
	return nil
}
