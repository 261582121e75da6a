package models

import "time"

// WatchlistStatus tracks where a movie sits in a user's viewing pipeline.
type WatchlistStatus string

const (
	WatchlistWantToWatch WatchlistStatus = "want_to_watch"
	WatchlistWatching    WatchlistStatus = "watching"
	WatchlistWatched     WatchlistStatus = "watched"
	WatchlistDropped     WatchlistStatus = "dropped"
	WatchlistOnHold      WatchlistStatus = "on_hold"
)

// IsValid reports whether the status is one of the known values.
func (s WatchlistStatus) IsValid() bool {
	switch s {
	case WatchlistWantToWatch, WatchlistWatching, WatchlistWatched, WatchlistDropped, WatchlistOnHold:
		return true
	}
	return false
}

// WatchlistEntry links a user to a movie they intend to watch. At most one
// entry exists per (user, movie) pair.
type WatchlistEntry struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	MovieID    string          `json:"movieId"`
	Status     WatchlistStatus `json:"status"`
	IsFavorite bool            `json:"isFavorite"`
	Notes      string          `json:"notes,omitempty"`
	WatchedAt  *time.Time      `json:"watchedAt,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`

	Movie *Movie `json:"movie,omitempty"`
}
