package domain

import "time"

// DaysInYear is the year length used for age-relative timeline jumps.
const DaysInYear = 365.25

// Year is the duration of one journal year (365.25 days).
const Year = time.Duration(DaysInYear * 24 * float64(time.Hour))

// Picture is the root entity of the photo journal. Pictures form a
// doubly-linked chain ordered by Date: PrevRef and NextRef hold the IDs
// of the chronologically adjacent pictures. The refs are denormalized
// for O(1) traversal; the date index is the durable source of truth and
// the refs can always be re-derived from it.
type Picture struct {
	ID string `json:"id"`

	// Name is the blob name of the image bytes in blob storage.
	// Unique per picture.
	Name string `json:"name"`

	// Date is the logical timestamp that positions the picture in the
	// chronological chain. Mutable via date edits; not unique, ties
	// are broken by AddedOrder ascending.
	Date time.Time `json:"date"`

	// AddedOrder is the immutable insertion-order identifier used in
	// URLs. Assigned at creation, monotonically increasing.
	AddedOrder int64 `json:"added_order"`

	AddedOn   time.Time `json:"added_on"`
	UpdatedOn time.Time `json:"updated_on"`

	// PrevRef and NextRef are weak references (lookup only, no
	// ownership) to the adjacent pictures by date order. Empty on the
	// chain boundaries: the earliest picture has no PrevRef, the
	// latest no NextRef.
	PrevRef string `json:"prev_ref,omitempty"`
	NextRef string `json:"next_ref,omitempty"`

	// TagRefs holds weak references to Tag entities, deduplicated.
	TagRefs []string `json:"tag_refs,omitempty"`

	// CommentRefs holds weak references to Comment entities, in
	// submission order.
	CommentRefs []string `json:"comment_refs,omitempty"`

	// Rotation is the display rotation in degrees: 0, 90, 180, or 270.
	Rotation int `json:"rotation"`
}

// Touch updates the UpdatedOn timestamp.
func (p *Picture) Touch() {
	p.UpdatedOn = time.Now().UTC()
}

// IsEarliest reports whether the picture is the chronological start of the chain.
func (p *Picture) IsEarliest() bool {
	return p.PrevRef == ""
}

// IsLatest reports whether the picture is the chronological end of the chain.
func (p *Picture) IsLatest() bool {
	return p.NextRef == ""
}

// HasTag reports whether the picture already references the given tag.
func (p *Picture) HasTag(tagID string) bool {
	for _, ref := range p.TagRefs {
		if ref == tagID {
			return true
		}
	}
	return false
}

// ValidRotation reports whether deg is a displayable rotation.
func ValidRotation(deg int) bool {
	switch deg {
	case 0, 90, 180, 270:
		return true
	default:
		return false
	}
}
