package models

import "time"

// Rating is one user's score for one movie. At most one rating exists per
// (user, movie) pair; the value is constrained to [0.0, 10.0] with a single
// decimal place.
type Rating struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	MovieID   string    `json:"movieId"`
	Rating    float64   `json:"rating"`
	Review    string    `json:"review,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Populated when loaded with relations.
	User  *PublicUser `json:"user,omitempty"`
	Movie *Movie      `json:"movie,omitempty"`
}

// RatingBucket is one row of a per-star rating distribution.
type RatingBucket struct {
	Rating int   `json:"rating"`
	Count  int64 `json:"count"`
}

// RatingStats aggregates the ratings of a single movie.
type RatingStats struct {
	AverageRating float64        `json:"averageRating"`
	TotalRatings  int64          `json:"totalRatings"`
	Distribution  []RatingBucket `json:"ratingDistribution"`
}
