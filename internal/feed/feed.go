// Package feed holds the dashboard's notification feed: the loaded records, the
// active filter and search text, and the derived view rendered from them.
//
// A Feed has a single owner and does no locking; callers that share one across
// goroutines must serialize access themselves.
package feed

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/angelmondragon/tunedash-backend/pkg/enums"
)

// Feed is the in-memory notification collection plus its view state.
// The zero value is an empty feed with the "all" filter.
type Feed struct {
	records map[string]Record
	filter  FilterKey
	query   string
}

// New returns an empty feed.
func New() *Feed {
	return &Feed{
		records: map[string]Record{},
		filter:  FilterAll,
	}
}

// Load replaces the whole collection with records, keyed by id. Nothing from the
// previous collection survives. When the same id appears twice the later entry wins.
func (f *Feed) Load(records []Record) {
	next := make(map[string]Record, len(records))
	for _, r := range records {
		next[r.ID] = r
	}
	f.records = next

	// A category filter only stays valid while that category is still loaded.
	if !f.validKey(f.filter) {
		f.filter = FilterAll
	}
}

// SetFilter changes the active filter. Unknown keys select FilterAll.
func (f *Feed) SetFilter(key FilterKey) {
	if f.validKey(key) {
		f.filter = key
		return
	}
	f.filter = FilterAll
}

// Filter returns the active filter key.
func (f *Feed) Filter() FilterKey {
	if f.filter == "" {
		return FilterAll
	}
	return f.filter
}

// SetSearchQuery stores the raw search text. Matching happens in View.
func (f *Feed) SetSearchQuery(text string) {
	f.query = text
}

// SearchQuery returns the raw search text.
func (f *Feed) SearchQuery() string {
	return f.query
}

// MarkRead flips the record with the given id to read. It reports whether the
// status changed; absent ids and already-read records are left alone.
func (f *Feed) MarkRead(id string) bool {
	r, ok := f.records[id]
	if !ok || !r.Unread() {
		return false
	}
	r.Status = enums.NotificationStatusRead
	f.records[id] = r
	return true
}

// MarkAllRead flips every unread record to read and returns the affected ids in
// ascending order.
func (f *Feed) MarkAllRead() []string {
	changed := []string{}
	for id, r := range f.records {
		if !r.Unread() {
			continue
		}
		r.Status = enums.NotificationStatusRead
		f.records[id] = r
		changed = append(changed, id)
	}
	slices.Sort(changed)
	return changed
}

// View returns the records that pass both the active filter and the search
// query, newest first. Records with equal timestamps are ordered by id. A
// query of only whitespace matches everything.
func (f *Feed) View() []Record {
	filter := f.Filter()
	needle := ""
	if q := strings.TrimSpace(f.query); q != "" {
		needle = fold(q)
	}

	out := make([]Record, 0, len(f.records))
	for _, r := range f.records {
		if !passesFilter(r, filter) {
			continue
		}
		if needle != "" && !matches(r, needle) {
			continue
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, newestFirst)
	return out
}

// UnreadCount counts unread records across the whole collection, ignoring the
// active filter and search query.
func (f *Feed) UnreadCount() int {
	n := 0
	for _, r := range f.records {
		if r.Unread() {
			n++
		}
	}
	return n
}

// Counts returns the chip counts for the filter bar: total, unread, and one
// entry per loaded category. Categories named like a reserved key are not
// reported separately.
func (f *Feed) Counts() map[FilterKey]int {
	counts := map[FilterKey]int{
		FilterAll:    len(f.records),
		FilterUnread: 0,
	}
	for _, r := range f.records {
		if r.Unread() {
			counts[FilterUnread]++
		}
		key := CategoryKey(r.Category)
		if key == "" || key.reserved() {
			continue
		}
		counts[key]++
	}
	return counts
}

// Categories lists the distinct loaded categories in ascending order.
func (f *Feed) Categories() []enums.NotificationCategory {
	seen := map[enums.NotificationCategory]struct{}{}
	for _, r := range f.records {
		if r.Category == "" || CategoryKey(r.Category).reserved() {
			continue
		}
		seen[r.Category] = struct{}{}
	}
	out := make([]enums.NotificationCategory, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// get returns the record with the given id.
func (f *Feed) get(id string) (Record, bool) {
	r, ok := f.records[id]
	return r, ok
}

// size returns the number of loaded records.
func (f *Feed) size() int {
	return len(f.records)
}

func (f *Feed) validKey(key FilterKey) bool {
	if key.reserved() {
		return true
	}
	if key == "" {
		return false
	}
	for _, r := range f.records {
		if CategoryKey(r.Category) == key {
			return true
		}
	}
	return false
}

func passesFilter(r Record, filter FilterKey) bool {
	switch filter {
	case FilterAll:
		return true
	case FilterUnread:
		return r.Unread()
	default:
		return CategoryKey(r.Category) == filter
	}
}

func matches(r Record, needle string) bool {
	return strings.Contains(fold(r.Title), needle) || strings.Contains(fold(r.Message), needle)
}

// fold case-folds s for case-insensitive comparison. A fresh Caser is used per
// call because Casers keep state.
func fold(s string) string {
	return cases.Fold().String(s)
}

func newestFirst(a, b Record) int {
	return cmp.Or(
		b.CreatedAt.Compare(a.CreatedAt),
		strings.Compare(a.ID, b.ID),
	)
}
