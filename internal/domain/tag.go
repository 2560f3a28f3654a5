package domain

import (
	"math"
	"time"
)

// Tag is a freeform label shared across pictures, deduplicated by
// canonical Text. Count tracks how many picture associations the tag
// has received; it only ever increments (associations removed later are
// not subtracted), so treat it as best-effort popularity, not an exact
// inverse of the association set.
type Tag struct {
	ID   string `json:"id"`
	Text string `json:"text"`

	Count int64 `json:"count"`
	// CountLog is log10(Count), precomputed for tag-cloud font sizing.
	CountLog float64 `json:"count_log"`

	AddedOn time.Time `json:"added_on"`
}

// Bump increments the usage counter and recomputes its log.
func (t *Tag) Bump() {
	t.Count++
	t.CountLog = math.Log10(float64(t.Count))
}
