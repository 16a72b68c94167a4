// Package client is a typed HTTP client for the recipe API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/flavorhub/internal/domain"
)

// ErrNotFound is returned when the server has no resource to return and did
// not name a more specific reason.
var ErrNotFound = errors.New("client: not found")

// Recipe mirrors the server's recipe payload.
type Recipe struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	PrepTime        int       `json:"prepTime"`
	CookTime        int       `json:"cookTime"`
	Servings        int       `json:"servings"`
	DifficultyLevel string    `json:"difficultyLevel"`
	CuisineType     string    `json:"cuisineType"`
	AverageRating   *float64  `json:"averageRating"`
	RatingCount     int64     `json:"ratingCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// RecipeInput is the body of create and update calls.
type RecipeInput struct {
	Name            string  `json:"name"`
	Description     *string `json:"description,omitempty"`
	PrepTime        int     `json:"prepTime"`
	CookTime        int     `json:"cookTime"`
	Servings        int     `json:"servings"`
	DifficultyLevel string  `json:"difficultyLevel"`
	CuisineType     string  `json:"cuisineType"`
}

// Rating mirrors the server's rating payload.
type Rating struct {
	ID        string    `json:"id"`
	RecipeID  int64     `json:"recipeId"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	Review    *string   `json:"review,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary is the aggregate returned by the average endpoint.
type Summary struct {
	AverageRating float64 `json:"averageRating"`
	RatingCount   int64   `json:"ratingCount"`
}

// APIError is a non-2xx response. It unwraps to the matching domain error
// when the server reported a known code.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("client: server returned %d", e.Status)
	}
	return fmt.Sprintf("client: %s (%d): %s", e.Code, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Code {
	case "RECIPE_NOT_FOUND":
		return domain.ErrRecipeNotFound
	case "RATING_NOT_FOUND":
		return domain.ErrRatingNotFound
	case "DUPLICATE_RATING":
		return domain.ErrDuplicateRating
	case "INVALID_RATING":
		return domain.ErrInvalidRatingValue
	case "INVALID_USER_ID":
		return domain.ErrInvalidUserID
	}
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Client calls the recipe API over HTTP.
type Client struct {
	baseURL *url.URL
	token   string
	client  *http.Client
	logger  zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithToken sets the bearer token sent on catalog mutations.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger used for unexpected responses.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// New constructs a client for the API rooted at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse api url: %q is not absolute", baseURL)
	}
	c := &Client{
		baseURL: parsed,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RecipeOfTheDay returns today's pick or ErrNotFound for an empty catalog.
func (c *Client) RecipeOfTheDay(ctx context.Context) (*Recipe, error) {
	var out Recipe
	if err := c.do(ctx, http.MethodGet, "/api/recipes/recipe-of-the-day", nil, nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRecipes returns the recipes matching every non-empty filter field.
func (c *Client) ListRecipes(ctx context.Context, filter domain.RecipeFilter) ([]Recipe, error) {
	q := url.Values{}
	if filter.Difficulty != "" {
		q.Set("difficulty", filter.Difficulty)
	}
	if filter.Cuisine != "" {
		q.Set("cuisine", filter.Cuisine)
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	var out []Recipe
	if err := c.do(ctx, http.MethodGet, "/api/recipes", q, nil, false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRecipe returns one recipe.
func (c *Client) GetRecipe(ctx context.Context, id int64) (*Recipe, error) {
	var out Recipe
	if err := c.do(ctx, http.MethodGet, recipePath(id), nil, nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRecipe adds a recipe. Requires WithToken.
func (c *Client) CreateRecipe(ctx context.Context, in RecipeInput) (*Recipe, error) {
	var out Recipe
	if err := c.do(ctx, http.MethodPost, "/api/recipes", nil, in, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRecipe removes a recipe and its ratings. Requires WithToken.
func (c *Client) DeleteRecipe(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, recipePath(id), nil, nil, true, nil)
}

// SubmitRating rates a recipe on behalf of userID.
func (c *Client) SubmitRating(ctx context.Context, recipeID int64, userID string, value int, review *string) (*Rating, error) {
	body := struct {
		UserID string  `json:"userId"`
		Rating int     `json:"rating"`
		Review *string `json:"review,omitempty"`
	}{userID, value, review}

	var out Rating
	if err := c.do(ctx, http.MethodPost, recipePath(recipeID)+"/ratings", nil, body, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRating overwrites a rating's value and review.
func (c *Client) UpdateRating(ctx context.Context, recipeID int64, ratingID string, value int, review *string) (*Rating, error) {
	body := struct {
		Rating int     `json:"rating"`
		Review *string `json:"review,omitempty"`
	}{value, review}

	var out Rating
	if err := c.do(ctx, http.MethodPut, ratingPath(recipeID, ratingID), nil, body, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRating removes a rating. Deleting an absent rating succeeds.
func (c *Client) DeleteRating(ctx context.Context, recipeID int64, ratingID string) error {
	return c.do(ctx, http.MethodDelete, ratingPath(recipeID, ratingID), nil, nil, false, nil)
}

// ListRatings returns the ratings of a recipe in submission order.
func (c *Client) ListRatings(ctx context.Context, recipeID int64) ([]Rating, error) {
	var out []Rating
	if err := c.do(ctx, http.MethodGet, recipePath(recipeID)+"/ratings", nil, nil, false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RatingSummary returns the live average and count for a recipe.
func (c *Client) RatingSummary(ctx context.Context, recipeID int64) (Summary, error) {
	var out Summary
	if err := c.do(ctx, http.MethodGet, recipePath(recipeID)+"/ratings/average", nil, nil, false, &out); err != nil {
		return Summary{}, err
	}
	return out, nil
}

func recipePath(id int64) string {
	return "/api/recipes/" + strconv.FormatInt(id, 10)
}

func ratingPath(recipeID int64, ratingID string) string {
	return recipePath(recipeID) + "/ratings/" + url.PathEscape(ratingID)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, auth bool, out any) error {
	rel := &url.URL{Path: c.baseURL.Path + path}
	if len(query) > 0 {
		rel.RawQuery = query.Encode()
	}
	endpoint := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	apiErr := decodeAPIError(resp.StatusCode, resp.Body)
	if resp.StatusCode >= http.StatusInternalServerError {
		c.logger.Warn().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("unexpected api response")
	}
	return apiErr
}

func decodeAPIError(status int, body io.Reader) *APIError {
	apiErr := &APIError{Status: status}
	payload, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(payload) == 0 {
		return apiErr
	}
	_ = json.Unmarshal(payload, apiErr)
	apiErr.Status = status
	return apiErr
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}
