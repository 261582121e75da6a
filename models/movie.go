package models

import "time"

// MovieStatus mirrors the TMDB production status vocabulary.
type MovieStatus string

const (
	StatusRumored        MovieStatus = "rumored"
	StatusPlanned        MovieStatus = "planned"
	StatusInProduction   MovieStatus = "in_production"
	StatusPostProduction MovieStatus = "post_production"
	StatusReleased       MovieStatus = "released"
	StatusCanceled       MovieStatus = "canceled"
)

// IsValid reports whether the status is one of the known values.
func (s MovieStatus) IsValid() bool {
	switch s {
	case StatusRumored, StatusPlanned, StatusInProduction, StatusPostProduction, StatusReleased, StatusCanceled:
		return true
	}
	return false
}

// Genre is a TMDB genre mirrored into the local catalog.
type Genre struct {
	ID          string    `json:"id"`
	TmdbID      int64     `json:"tmdbId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Movie is a catalog entry keyed by its TMDB identifier. AverageRating and
// RatingsCount are denormalized from the ratings table and recomputed after
// every rating mutation.
type Movie struct {
	ID                  string      `json:"id"`
	TmdbID              int64       `json:"tmdbId"`
	Title               string      `json:"title"`
	OriginalTitle       string      `json:"originalTitle,omitempty"`
	Overview            string      `json:"overview"`
	ReleaseDate         *time.Time  `json:"releaseDate,omitempty"`
	VoteAverage         float64     `json:"voteAverage"`
	VoteCount           int64       `json:"voteCount"`
	Popularity          float64     `json:"popularity"`
	PosterPath          string      `json:"posterPath,omitempty"`
	BackdropPath        string      `json:"backdropPath,omitempty"`
	Adult               bool        `json:"adult"`
	OriginalLanguage    string      `json:"originalLanguage,omitempty"`
	SpokenLanguages     []string    `json:"spokenLanguages,omitempty"`
	ProductionCountries []string    `json:"productionCountries,omitempty"`
	Budget              int64       `json:"budget,omitempty"`
	Revenue             int64       `json:"revenue,omitempty"`
	Runtime             int         `json:"runtime,omitempty"`
	Status              MovieStatus `json:"status"`
	Tagline             string      `json:"tagline,omitempty"`
	Homepage            string      `json:"homepage,omitempty"`
	ImdbID              string      `json:"imdbId,omitempty"`
	AverageRating       float64     `json:"averageRating"`
	RatingsCount        int64       `json:"ratingsCount"`
	IsActive            bool        `json:"isActive"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
	LastSyncedAt        *time.Time  `json:"lastSyncedAt,omitempty"`
	DeletedAt           *time.Time  `json:"-"`

	Genres []Genre `json:"genres"`
}

// SortKey selects exactly one ORDER BY clause for movie search.
type SortKey string

const (
	SortTitleAsc       SortKey = "title_asc"
	SortTitleDesc      SortKey = "title_desc"
	SortReleaseAsc     SortKey = "release_date_asc"
	SortReleaseDesc    SortKey = "release_date_desc"
	SortRatingAsc      SortKey = "rating_asc"
	SortRatingDesc     SortKey = "rating_desc"
	SortPopularityAsc  SortKey = "popularity_asc"
	SortPopularityDesc SortKey = "popularity_desc"
	SortCreatedAsc     SortKey = "created_asc"
	SortCreatedDesc    SortKey = "created_desc"
)

// IsValid reports whether the sort key is one of the known values.
func (k SortKey) IsValid() bool {
	switch k {
	case SortTitleAsc, SortTitleDesc, SortReleaseAsc, SortReleaseDesc,
		SortRatingAsc, SortRatingDesc, SortPopularityAsc, SortPopularityDesc,
		SortCreatedAsc, SortCreatedDesc:
		return true
	}
	return false
}

// MovieSearch carries the filter, sort and pagination inputs for the movie
// search query. Zero values mean "no filter".
type MovieSearch struct {
	Search       string
	GenreTmdbIDs []int64
	Year         int
	MinRating    *float64
	MaxRating    *float64
	Language     string
	IncludeAdult bool
	SortBy       SortKey
	Page         int
	Limit        int
}
