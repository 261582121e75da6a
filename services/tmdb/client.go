// Package tmdb is a thin client for The Movie Database v3 API. It exposes
// the subset of endpoints the catalog consumes: search, details, the
// curated lists, discover and the genre index.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reelbase/config"
)

var (
	// ErrNotConfigured means no API key is set.
	ErrNotConfigured = errors.New("tmdb api key not configured")
	// ErrNotFound means TMDB has no resource with the requested ID.
	ErrNotFound = errors.New("tmdb resource not found")
)

type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	httpc        *http.Client
}

func NewClient(settings config.TMDBSettings) *Client {
	timeout := time.Duration(settings.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:       strings.TrimSpace(settings.APIKey),
		baseURL:      strings.TrimRight(settings.BaseURL, "/"),
		imageBaseURL: strings.TrimRight(settings.ImageBaseURL, "/"),
		httpc:        &http.Client{Timeout: timeout},
	}
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.apiKey != ""
}

// get performs a single GET against the TMDB API. Failures are returned to
// the caller immediately, there is no retry here.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, v any) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return err
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	if query.Get("language") == "" {
		query.Set("language", "en-US")
	}
	req.URL.RawQuery = query.Encode()

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("tmdb request failed: %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

// MovieResult is one entry of a TMDB movie list response.
type MovieResult struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int64   `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	Adult            bool    `json:"adult"`
	OriginalLanguage string  `json:"original_language"`
	GenreIDs         []int64 `json:"genre_ids"`
}

// MovieList is TMDB's paginated list envelope.
type MovieList struct {
	Page         int           `json:"page"`
	Results      []MovieResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int64         `json:"total_results"`
}

// MovieDetails is the full record of a single movie.
type MovieDetails struct {
	ID                  int64   `json:"id"`
	Title               string  `json:"title"`
	OriginalTitle       string  `json:"original_title"`
	Overview            string  `json:"overview"`
	ReleaseDate         string  `json:"release_date"`
	VoteAverage         float64 `json:"vote_average"`
	VoteCount           int64   `json:"vote_count"`
	Popularity          float64 `json:"popularity"`
	PosterPath          string  `json:"poster_path"`
	BackdropPath        string  `json:"backdrop_path"`
	Adult               bool    `json:"adult"`
	OriginalLanguage    string  `json:"original_language"`
	Budget              int64   `json:"budget"`
	Revenue             int64   `json:"revenue"`
	Runtime             int     `json:"runtime"`
	Status              string  `json:"status"`
	Tagline             string  `json:"tagline"`
	Homepage            string  `json:"homepage"`
	IMDBID              string  `json:"imdb_id"`
	Genres              []Genre `json:"genres"`
	SpokenLanguages     []struct {
		ISO6391 string `json:"iso_639_1"`
		Name    string `json:"name"`
	} `json:"spoken_languages"`
	ProductionCountries []struct {
		ISO31661 string `json:"iso_3166_1"`
		Name     string `json:"name"`
	} `json:"production_countries"`
}

// Genre is a TMDB genre record.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type genreListResponse struct {
	Genres []Genre `json:"genres"`
}

// SearchMovies runs a title search.
func (c *Client) SearchMovies(ctx context.Context, query string, page int) (MovieList, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", strconv.Itoa(pageOrFirst(page)))
	q.Set("include_adult", "false")

	var out MovieList
	err := c.get(ctx, "/search/movie", q, &out)
	return out, err
}

// MovieDetails fetches the full record of one movie.
func (c *Client) MovieDetails(ctx context.Context, tmdbID int64) (MovieDetails, error) {
	var out MovieDetails
	err := c.get(ctx, "/movie/"+strconv.FormatInt(tmdbID, 10), nil, &out)
	return out, err
}

// Popular returns TMDB's popular movie list.
func (c *Client) Popular(ctx context.Context, page int) (MovieList, error) {
	return c.list(ctx, "/movie/popular", page)
}

// TopRated returns TMDB's top rated movie list.
func (c *Client) TopRated(ctx context.Context, page int) (MovieList, error) {
	return c.list(ctx, "/movie/top_rated", page)
}

// NowPlaying returns movies currently in theaters.
func (c *Client) NowPlaying(ctx context.Context, page int) (MovieList, error) {
	return c.list(ctx, "/movie/now_playing", page)
}

// Upcoming returns movies with upcoming releases.
func (c *Client) Upcoming(ctx context.Context, page int) (MovieList, error) {
	return c.list(ctx, "/movie/upcoming", page)
}

func (c *Client) list(ctx context.Context, endpoint string, page int) (MovieList, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(pageOrFirst(page)))

	var out MovieList
	err := c.get(ctx, endpoint, q, &out)
	return out, err
}

// DiscoverOptions narrows a discover query. Zero values are omitted.
type DiscoverOptions struct {
	GenreIDs []int64
	Year     int
	SortBy   string
	Page     int
}

// Discover runs a filtered discover query.
func (c *Client) Discover(ctx context.Context, opts DiscoverOptions) (MovieList, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(pageOrFirst(opts.Page)))
	q.Set("include_adult", "false")
	if len(opts.GenreIDs) > 0 {
		ids := make([]string, len(opts.GenreIDs))
		for i, id := range opts.GenreIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		q.Set("with_genres", strings.Join(ids, ","))
	}
	if opts.Year > 0 {
		q.Set("primary_release_year", strconv.Itoa(opts.Year))
	}
	if opts.SortBy != "" {
		q.Set("sort_by", opts.SortBy)
	}

	var out MovieList
	err := c.get(ctx, "/discover/movie", q, &out)
	return out, err
}

// MovieGenres returns TMDB's movie genre index.
func (c *Client) MovieGenres(ctx context.Context) ([]Genre, error) {
	var out genreListResponse
	if err := c.get(ctx, "/genre/movie/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Genres, nil
}

// ImageURL builds a full image URL for a TMDB image path, or returns an
// empty string when the path is empty.
func (c *Client) ImageURL(imagePath, size string) string {
	if imagePath == "" {
		return ""
	}
	if !strings.HasPrefix(imagePath, "/") {
		imagePath = "/" + imagePath
	}
	return c.imageBaseURL + "/" + size + imagePath
}

func pageOrFirst(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
