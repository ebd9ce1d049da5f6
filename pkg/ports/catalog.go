package ports

import (
	"context"
	"errors"
)

// ErrProfileNotFound is returned when a user has no stored profile.
var ErrProfileNotFound = errors.New("profile not found")

// Category is a parent entry of a two-level catalog.
type Category struct {
	ID       int
	Title    string
	Children []Entry
}

// Entry is a leaf of the catalog.
type Entry struct {
	ID          int
	Title       string
	Description string
	ImageURL    string
}

// CatalogSource provides live catalog data used to generate browsing dialogs.
type CatalogSource interface {
	Categories(ctx context.Context) ([]Category, error)
}

// Profile is the data collected by the registration flow.
type Profile struct {
	UserID  int64  `json:"user_id"`
	Name    string `json:"name"`
	Age     int    `json:"age"`
	Role    string `json:"role"`
	Subject string `json:"subject,omitempty"`
}

// ProfileRepository stores user profiles beyond the conversational session.
type ProfileRepository interface {
	Get(ctx context.Context, userID int64) (Profile, error)
	Save(ctx context.Context, p Profile) error
}
