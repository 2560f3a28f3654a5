package domain

import "time"

// Comment is freeform text attached to exactly one picture.
// Comments are append-only: created on submission, never edited, and
// deleted only as part of a whole-system erase.
type Comment struct {
	ID      string    `json:"id"`
	Text    string    `json:"text"`
	AddedOn time.Time `json:"added_on"`
}
