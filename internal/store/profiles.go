package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a profile ID does not exist.
var ErrNotFound = errors.New("profile not found")

// ProfileFields are the structured fields extracted from free-form
// submission text. Every field is independently nullable: absence in the
// source text is represented as nil, never as a zero value.
type ProfileFields struct {
	Name         *string `json:"name"`
	Age          *int    `json:"age"`
	Height       *int    `json:"height"`
	Weight       *int    `json:"weight"`
	Measurements *string `json:"measurements"`
	About        *string `json:"about"`
}

// Profile is one stored submission. JSON field names follow the admin API
// contract the dashboard frontend expects (camelCase, "date" for CreatedAt).
type Profile struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"date"`
	Username  string    `json:"username"`
	ProfileFields
	PhotoURLs  []string `json:"photoUrl"`
	VideoURLs  []string `json:"videoUrl"`
	AdminNotes *string  `json:"adminNotes"`
}

// NewProfile is the enriched profile handed to Create by the intake
// pipeline. URL slices are nil when the submission had no media of that kind.
type NewProfile struct {
	Username string `json:"username"`
	ProfileFields
	PhotoURLs []string `json:"photoUrl"`
	VideoURLs []string `json:"videoUrl"`
}

// UpdateProfile is a full-field update applied by the admin surface.
type UpdateProfile struct {
	ProfileFields
	PhotoURLs  []string `json:"photoUrl"`
	VideoURLs  []string `json:"videoUrl"`
	AdminNotes *string  `json:"adminNotes"`
}

// DailyCount is one day's submission count.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// Analytics aggregates the stored profiles for the admin dashboard.
type Analytics struct {
	TotalProfiles     int          `json:"totalProfiles"`
	AvgAge            *float64     `json:"avgAge"`
	ProfilesWithPhoto int          `json:"profilesWithPhoto"`
	ProfilesWithVideo int          `json:"profilesWithVideo"`
	DailyCounts       []DailyCount `json:"dailyCounts"`
}

// ProfileStore persists enriched profiles. Create is consumed by the intake
// pipeline; the remaining operations serve the admin surface.
type ProfileStore interface {
	Create(ctx context.Context, p NewProfile) (*Profile, error)
	Get(ctx context.Context, id uuid.UUID) (*Profile, error)
	List(ctx context.Context) ([]*Profile, error)
	Update(ctx context.Context, id uuid.UUID, p UpdateProfile) (*Profile, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Analytics(ctx context.Context) (*Analytics, error)
}
