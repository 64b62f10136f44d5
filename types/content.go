package types

import "time"

// Content statuses used by the reports.
const (
	ContentStatusPublished = "published"
	ContentStatusPending   = "pending"
	ContentStatusDraft     = "draft"
)

// Content is a piece of work listed on the marketplace. Reports aggregate
// over its engagement counters.
type Content struct {
	// ID is the unique identifier of the content item.
	ID int64 `json:"id" db:"id"`

	// CreatorID is the ID of the user who published the item, if known.
	CreatorID *string `json:"creator_id,omitempty" db:"creator_id"`

	// Type is the free-form category, e.g. "Art" or "Music".
	Type string `json:"type" db:"type"`

	// Status is the publication state, e.g. "published" or "draft".
	Status string `json:"status" db:"status"`

	// Views is the number of times the item was viewed.
	Views int64 `json:"views" db:"views"`

	// Sales is the monetary amount the item has earned.
	Sales float64 `json:"sales" db:"sales"`

	// CreatedAt is the timestamp at which the item was published.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
