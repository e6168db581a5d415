package cart

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ErrNoRecord is returned by a Store for a session it has never saved.
var ErrNoRecord = errors.New("no stored session")

// Record is the persisted state of one session.
type Record struct {
	Cart     Snapshot `json:"cart"`
	Wishlist []string `json:"wishlist,omitempty"`
}

// Store persists session records between requests and restarts.
type Store interface {
	Load(ctx context.Context, id string) (Record, error)
	Save(ctx context.Context, id string, rec Record) error
}

const keyPrefix = "storefront:session:"

// RedisStore keeps each record as a JSON string that expires ttl after
// its last save.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, id string) (Record, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNoRecord
	}
	if err != nil {
		return Record{}, errors.Wrapf(err, "load session %s", id)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, errors.Wrapf(err, "decode session %s", id)
	}
	return rec, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrapf(err, "encode session %s", id)
	}
	return errors.Wrapf(s.client.Set(ctx, keyPrefix+id, raw, s.ttl).Err(), "save session %s", id)
}

// MemoryStore is a process-local Store. Records are kept encoded so that
// loads go through the same JSON round trip as RedisStore.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string][]byte{}}
}

func (s *MemoryStore) Load(_ context.Context, id string) (Record, error) {
	s.mu.Lock()
	raw, ok := s.records[id]
	s.mu.Unlock()
	if !ok {
		return Record{}, ErrNoRecord
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, errors.Wrapf(err, "decode session %s", id)
	}
	return rec, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrapf(err, "encode session %s", id)
	}
	s.mu.Lock()
	s.records[id] = raw
	s.mu.Unlock()
	return nil
}
