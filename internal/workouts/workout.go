package workouts

import (
	"time"
)

const (
	// sentinels applied at creation time for empty input, never re-validated later
	DefaultDescription = "No description"
	DefaultLocation    = "Unknown location"

	// long-form date rendering used by free-text search
	searchDateLayout = "January 2, 2006 at 3:04 PM"
)

type Workout struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
	IsCompleted bool      `json:"isCompleted"`
	Favourite   bool      `json:"favourite"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Normalize fills empty free-text fields with their sentinels.
func (w *Workout) Normalize() {
	if w.Description == "" {
		w.Description = DefaultDescription
	}
	if w.Location == "" {
		w.Location = DefaultLocation
	}
}

// ReconcileCompletion re-derives the completion flag from the date. Called at
// creation and on every edit of the date, so a workout directly marked as
// completed while future-dated heals on its next edit.
func (w *Workout) ReconcileCompletion(now time.Time) {
	w.IsCompleted = !w.Date.After(now)
}

// SearchDate renders the date the way the app shows it in workout rows,
// making queries like "january" or "9:00" match.
func (w *Workout) SearchDate() string {
	return w.Date.Format(searchDateLayout)
}

type Bucket string

const (
	BucketCompleted  Bucket = "completed"
	BucketLapsed     Bucket = "lapsed"
	BucketUpcoming   Bucket = "upcoming"
	BucketFavourites Bucket = "favourites"
)

// ParseBucket returns the bucket for a path/query value. Unknown values
// yield false, never an error.
func ParseBucket(s string) (Bucket, bool) {
	switch Bucket(s) {
	case BucketCompleted, BucketLapsed, BucketUpcoming, BucketFavourites:
		return Bucket(s), true
	default:
		return "", false
	}
}

// InBucket evaluates bucket membership against now. Completed, lapsed and
// upcoming are mutually exclusive; favourites cross-cuts all of them. A
// future-dated workout directly marked as completed matches no date bucket.
func (w *Workout) InBucket(bucket Bucket, now time.Time) bool {
	switch bucket {
	case BucketCompleted:
		return !w.Date.After(now) && w.IsCompleted
	case BucketLapsed:
		return !w.Date.After(now) && !w.IsCompleted
	case BucketUpcoming:
		return w.Date.After(now) && !w.IsCompleted
	case BucketFavourites:
		return w.Favourite
	default:
		return false
	}
}
