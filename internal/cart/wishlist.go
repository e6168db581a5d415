package cart

import (
	"slices"
	"sync"
)

// Wishlist is an ordered set of product ids.
type Wishlist struct {
	mu  sync.Mutex
	ids []string
}

func NewWishlist(ids ...string) *Wishlist {
	w := &Wishlist{}
	for _, id := range ids {
		if !slices.Contains(w.ids, id) {
			w.ids = append(w.ids, id)
		}
	}
	return w
}

// Toggle adds id when absent and removes it otherwise. It reports whether
// id is in the wishlist afterwards.
func (w *Wishlist) Toggle(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if i := slices.Index(w.ids, id); i >= 0 {
		w.ids = slices.Delete(w.ids, i, i+1)
		return false
	}
	w.ids = append(w.ids, id)
	return true
}

func (w *Wishlist) Contains(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Contains(w.ids, id)
}

// Items returns the ids in the order they were added.
func (w *Wishlist) Items() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := slices.Clone(w.ids)
	if out == nil {
		out = []string{}
	}
	return out
}
