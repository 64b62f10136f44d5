package store

import (
	"time"

	"github.com/creatorhub/apiserver/types"
)

// SampleContent is the demo catalog loaded by the seed command. Creation
// times are relative to now so the trending report has recent items.
func SampleContent(now time.Time) []types.Content {
	const day = 24 * time.Hour
	item := func(typ, status string, views int64, sales float64, age time.Duration) types.Content {
		return types.Content{Type: typ, Status: status, Views: views, Sales: sales, CreatedAt: now.Add(-age).UTC()}
	}
	return []types.Content{
		item("Art", types.ContentStatusPublished, 1500, 150, 5*day),
		item("Music", types.ContentStatusPublished, 2500, 250, 2*day),
		item("Writing", types.ContentStatusPublished, 800, 80, 10*day),
		item("Art", types.ContentStatusPending, 50, 0, day),
		item("Music", types.ContentStatusPublished, 1200, 120, 3*time.Hour),
		item("Writing", types.ContentStatusDraft, 100, 0, 7*day),
		item("Art", types.ContentStatusPublished, 3000, 300, 12*time.Hour),
		item("Music", types.ContentStatusPublished, 4000, 400, 4*day),
		item("Art", types.ContentStatusPublished, 2000, 200, 6*time.Hour),
		item("Writing", types.ContentStatusPublished, 1000, 100, 20*day),
		item("Photography", types.ContentStatusPublished, 900, 90, time.Hour),
		item("Video", types.ContentStatusPublished, 5000, 500, 2*time.Hour),
		item("Art", types.ContentStatusPublished, 1800, 180, 4*time.Hour),
	}
}
