package cart

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clam-storefront/internal/catalog"
)

func TestWishlist_Toggle(t *testing.T) {
	w := NewWishlist("a", "b", "a")
	assert.Equal(t, []string{"a", "b"}, w.Items())

	assert.True(t, w.Toggle("c"))
	assert.True(t, w.Contains("c"))
	assert.False(t, w.Toggle("a"))
	assert.False(t, w.Contains("a"))
	assert.Equal(t, []string{"b", "c"}, w.Items())

	assert.Equal(t, []string{}, NewWishlist().Items())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Load(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNoRecord))

	rec := Record{
		Cart:     Snapshot{Lines: []Line{{ProductID: "lens", UnitPrice: dec("249.99"), Quantity: 2}}, PromoCode: "SAVE10"},
		Wishlist: []string{"tee"},
	}
	require.NoError(t, s.Save(ctx, "s1", rec))

	got, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", got.Cart.PromoCode)
	assert.Equal(t, []string{"tee"}, got.Wishlist)
	require.Len(t, got.Cart.Lines, 1)
	assert.True(t, got.Cart.Lines[0].UnitPrice.Equal(dec("249.99")))
}

func TestSessions_RoundTripTotals(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first, err := NewSessions(testPricing, store, 8)
	require.NoError(t, err)

	var sess *Session
	err = first.Do(ctx, "anon:1", func(s *Session) error {
		sess = s
		if _, err := s.Cart.AddItem(tee, "M", 3); err != nil {
			return err
		}
		if _, err := s.Cart.AddItem(lens, "", 1); err != nil {
			return err
		}
		if _, err := s.Cart.ApplyPromoCode("SAVE20"); err != nil {
			return err
		}
		s.Wishlist.Toggle("jeans")
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, first.View(ctx, "anon:1", func(again *Session) error {
		assert.Same(t, sess, again, "live sessions are reused")
		return nil
	}))

	second, err := NewSessions(testPricing, store, 8)
	require.NoError(t, err)
	require.NoError(t, second.View(ctx, "anon:1", func(restored *Session) error {
		want, got := sess.Cart.Totals(), restored.Cart.Totals()
		assert.True(t, want.Subtotal.Equal(got.Subtotal))
		assert.True(t, want.Discount.Equal(got.Discount))
		assert.True(t, want.Tax.Equal(got.Tax))
		assert.True(t, want.Total.Equal(got.Total))
		assert.Equal(t, want.PromoCode, got.PromoCode)
		assert.Equal(t, []string{"jeans"}, restored.Wishlist.Items())
		return nil
	}))
}

func addItem(p catalog.Product, size catalog.Size, qty int) func(*Session) error {
	return func(s *Session) error {
		_, err := s.Cart.AddItem(p, size, qty)
		return err
	}
}

func storedLines(t *testing.T, store Store, id string) []Line {
	t.Helper()
	rec, err := store.Load(context.Background(), id)
	require.NoError(t, err)
	return rec.Cart.Lines
}

func TestSessions_Eviction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sessions, err := NewSessions(testPricing, store, 1)
	require.NoError(t, err)

	require.NoError(t, sessions.Do(ctx, "owner", addItem(lens, "", 2)))
	require.NoError(t, sessions.Do(ctx, "other", addItem(jeans, "32", 1)))
	require.NoError(t, sessions.Do(ctx, "owner", addItem(tee, "M", 1)))

	lines := storedLines(t, store, "owner")
	require.Len(t, lines, 2)
	assert.Equal(t, LineKey{ProductID: "lens"}, lines[0].Key())
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, LineKey{ProductID: "tee", Size: "M"}, lines[1].Key())

	require.NoError(t, sessions.View(ctx, "owner", func(s *Session) error {
		assert.Equal(t, 3, s.Cart.ItemCount())
		return nil
	}))
}

func TestSessions_ConcurrentDo(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sessions, err := NewSessions(testPricing, store, 1)
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		id := fmt.Sprintf("p%02d", i)
		go func() {
			defer wg.Done()
			assert.NoError(t, sessions.Do(ctx, "owner", func(s *Session) error {
				s.Wishlist.Toggle(id)
				return nil
			}))
		}()
		// Another owner competes for the single cache slot.
		go func() {
			defer wg.Done()
			assert.NoError(t, sessions.Do(ctx, "other", addItem(lens, "", 1)))
		}()
	}
	wg.Wait()

	rec, err := store.Load(ctx, "owner")
	require.NoError(t, err)
	assert.Len(t, rec.Wishlist, n)
	assert.Len(t, sessions.locks, 0)
}

func TestSessions_DoErrorSkipsSave(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sessions, err := NewSessions(testPricing, store, 4)
	require.NoError(t, err)

	err = sessions.Do(ctx, "a", addItem(tee, "", 1))
	assert.True(t, errors.Is(err, ErrVariantRequired))

	_, err = store.Load(ctx, "a")
	assert.True(t, errors.Is(err, ErrNoRecord))
}

type failingStore struct{}

func (failingStore) Load(context.Context, string) (Record, error) {
	return Record{}, errors.New("connection refused")
}

func (failingStore) Save(context.Context, string, Record) error {
	return errors.New("connection refused")
}

func TestSessions_StoreError(t *testing.T) {
	sessions, err := NewSessions(testPricing, failingStore{}, 4)
	require.NoError(t, err)

	err = sessions.View(context.Background(), "a", func(*Session) error {
		t.Fatal("callback must not run when the load fails")
		return nil
	})
	assert.Error(t, err)
}

// flakyStore fails saves while down is set.
type flakyStore struct {
	*MemoryStore
	down bool
}

func (f *flakyStore) Save(ctx context.Context, id string, rec Record) error {
	if f.down {
		return errors.New("connection reset")
	}
	return f.MemoryStore.Save(ctx, id, rec)
}

func TestSessions_SaveErrorDropsLiveCopy(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{MemoryStore: NewMemoryStore()}
	sessions, err := NewSessions(testPricing, store, 4)
	require.NoError(t, err)

	require.NoError(t, sessions.Do(ctx, "a", addItem(lens, "", 1)))

	store.down = true
	assert.Error(t, sessions.Do(ctx, "a", addItem(tee, "M", 1)))
	store.down = false

	require.NoError(t, sessions.View(ctx, "a", func(s *Session) error {
		lines := s.Cart.Lines()
		require.Len(t, lines, 1)
		assert.Equal(t, "lens", lines[0].ProductID)
		return nil
	}))
}
