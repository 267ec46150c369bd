// Package query caches remote reads by key. Fresh entries are served without a request,
// concurrent reads of one key share a single fetch, and mutations invalidate by kind and id.
package query

import "strings"

// Kinds of cached data.
const (
	KindEvents    = "events"
	KindEvent     = "event"
	KindReviews   = "reviews"
	KindDashboard = "dashboard"
	KindProfile   = "profile"
)

// Key identifies a cached read. Filters is the canonical filter string for list reads.
type Key struct {
	Kind    string
	ID      string
	Filters string
}

// String is the canonical form used to coalesce fetches.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(k.Kind)
	if k.ID != "" {
		b.WriteByte('/')
		b.WriteString(k.ID)
	}
	if k.Filters != "" {
		b.WriteByte('?')
		b.WriteString(k.Filters)
	}
	return b.String()
}

// matches reports whether k falls under an invalidation of (kind, id). An empty id matches
// every key of the kind.
func (k Key) matches(kind, id string) bool {
	return k.Kind == kind && (id == "" || k.ID == id)
}
