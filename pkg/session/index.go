package session

// Item is an editable record identified by a stable key. T is the item's own
// (pointer) type so items can be compared by identity.
type Item[T any] interface {
	comparable
	Key() string
	Clone() T
}

// Index is an insertion-ordered view of a container keyed by item key.
// When several items share a key the first one is indexed and the key is
// reported by Duplicates.
type Index[T Item[T]] struct {
	keys  []string
	byKey map[string]T
	dups  []string
}

// NewIndex indexes items. Nil entries are skipped.
func NewIndex[T Item[T]](items []T) *Index[T] {
	ix := &Index[T]{byKey: make(map[string]T, len(items))}
	var zero T
	for _, item := range items {
		if item == zero {
			continue
		}
		k := item.Key()
		if _, seen := ix.byKey[k]; seen {
			ix.dups = append(ix.dups, k)
			continue
		}
		ix.byKey[k] = item
		ix.keys = append(ix.keys, k)
	}
	return ix
}

// Get returns the item indexed under key.
func (ix *Index[T]) Get(key string) (T, bool) {
	item, ok := ix.byKey[key]
	return item, ok
}

// Keys returns the distinct keys in container order.
func (ix *Index[T]) Keys() []string {
	return append([]string(nil), ix.keys...)
}

// Len returns the number of distinct keys.
func (ix *Index[T]) Len() int { return len(ix.keys) }

// Duplicates returns every key that appeared more than once, once per
// extra occurrence.
func (ix *Index[T]) Duplicates() []string {
	return append([]string(nil), ix.dups...)
}
