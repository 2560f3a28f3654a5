package store

import (
	"fmt"
	"strings"
	"time"
)

// Key layout. Every picture write maintains the primary record plus two
// index entries in the same single-entity transaction:
//
//	pic:{id}                          → Picture JSON
//	pic:idx:order:{order20}           → pictureID
//	pic:idx:date:{ts30}:{order20}     → pictureID
//	tag:{id}                          → Tag JSON
//	tag:idx:text:{canonical text}     → tagID
//	cmt:{id}                          → Comment JSON
//
// The date index key embeds the zero-padded added order after the
// fixed-width timestamp so that lexicographic key order equals
// (date, addedOrder) order, which is the tie-break the chain relies on.
const (
	picPrefix         = "pic:"
	picOrderIdxPrefix = "pic:idx:order:"
	picDateIdxPrefix  = "pic:idx:date:"
	picIdxPrefix      = "pic:idx:"
	tagPrefix         = "tag:"
	tagTextIdxPrefix  = "tag:idx:text:"
	commentPrefix     = "cmt:"
)

// formatDateKey renders a timestamp as a fixed-width, lexicographically
// sortable string. Nanoseconds are zero-padded to nine digits so the
// width is constant (30 characters).
func formatDateKey(t time.Time) string {
	u := t.UTC()
	return u.Format("2006-01-02T15:04:05") + fmt.Sprintf(".%09d", u.Nanosecond()) + "Z"
}

// formatOrderKey renders an added order as a fixed-width decimal.
func formatOrderKey(order int64) string {
	return fmt.Sprintf("%020d", order)
}

// dateIndexKey builds the composite (date, addedOrder) index key.
func dateIndexKey(date time.Time, order int64) []byte {
	return []byte(picDateIdxPrefix + formatDateKey(date) + ":" + formatOrderKey(order))
}

// orderIndexKey builds the added-order index key.
func orderIndexKey(order int64) []byte {
	return []byte(picOrderIdxPrefix + formatOrderKey(order))
}

// isIndexKey reports whether a key is a secondary index entry rather
// than a primary record. IDs are NanoIDs, so ":idx:" cannot occur in a
// primary key.
func isIndexKey(key []byte) bool {
	return strings.Contains(string(key), ":idx:")
}

// dateSeekKey returns the seek position for a date-range scan.
// With after=false the position sorts before every entry at exactly ts
// (entries carry a ":order" continuation); with after=true it sorts
// after all of them.
func dateSeekKey(ts time.Time, after bool) []byte {
	key := picDateIdxPrefix + formatDateKey(ts)
	if after {
		return append([]byte(key), 0xFF)
	}
	return []byte(key)
}
