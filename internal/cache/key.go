// internal/cache/key.go
package cache

import "fmt"

// Kind distinguishes the two cacheable read shapes.
type Kind string

const (
	KindList   Kind = "list"
	KindDetail Kind = "detail"
)

// Key is the ordered tuple of call-defining parameters that identifies
// one cacheable read. Identity is structural: two keys are the same
// entry iff every component is equal, with absence always encoded as
// the zero value. Never compare keys by pointer.
type Key struct {
	Kind   Kind
	Status string
	Search string
	Limit  int
	Offset int
	ID     int64
}

// ListKey builds the key for one list window. Empty status or search
// means "no filter" and is identical to never specifying one.
func ListKey(status, search string, limit, offset int) Key {
	return Key{Kind: KindList, Status: status, Search: search, Limit: limit, Offset: offset}
}

// DetailKey builds the key for a single ticket read.
func DetailKey(id int64) Key {
	return Key{Kind: KindDetail, ID: id}
}

// String renders the canonical delimited tuple. Cache entries are
// indexed by exactly this string.
func (k Key) String() string {
	if k.Kind == KindDetail {
		return fmt.Sprintf("detail|id=%d", k.ID)
	}
	return fmt.Sprintf("list|status=%s|q=%s|limit=%d|offset=%d", k.Status, k.Search, k.Limit, k.Offset)
}

// ByKind matches every key of the given kind, regardless of its other
// components.
func ByKind(kind Kind) func(Key) bool {
	return func(k Key) bool { return k.Kind == kind }
}

// ByDetail matches the single detail key for one ticket id.
func ByDetail(id int64) func(Key) bool {
	return func(k Key) bool { return k.Kind == KindDetail && k.ID == id }
}
