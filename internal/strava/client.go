// Package strava is a client for the Strava v3 REST API covering the
// endpoints ridelog needs: activity listings, single activities, streams,
// athlete profile and gear.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	apperrors "git.home.luguber.info/inful/ridelog/internal/errors"
	"git.home.luguber.info/inful/ridelog/internal/timerange"
)

const defaultBaseURL = "https://www.strava.com/api/v3"

// DefaultPerPage is the page size used for activity listings.
const DefaultPerPage = 100

// Client talks to the Strava API. All methods perform a single attempt per
// call; rate-limit and auth failures are classified so callers can decide.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a client using an OAuth2 token source for authentication.
func NewClient(ctx context.Context, ts oauth2.TokenSource) *Client {
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = 30 * time.Second
	return &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		userAgent:  "ridelog/1.0",
	}
}

// NewClientWithBaseURL creates a client against a custom API root with a
// plain HTTP client. Used by tests.
func NewClientWithBaseURL(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  "ridelog/1.0",
	}
}

// newRequest builds a GET request for an endpoint relative to the API root.
func (c *Client) newRequest(ctx context.Context, endpoint string, query url.Values) (*http.Request, error) {
	u := c.baseURL + "/" + strings.TrimPrefix(endpoint, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryInternal, "failed to create request").
			WithContext("url", u)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

// do executes a request and decodes the JSON response into result.
func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryNetwork, "failed to execute Strava request").
			WithContext("url", req.URL.String())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		// Read limited body for diagnostics
		limitedBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		bodyStr := strings.ReplaceAll(string(limitedBody), "\n", " ")

		category := apperrors.CategoryAPI
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			category = apperrors.CategoryAuth
		case http.StatusTooManyRequests:
			category = apperrors.CategoryRateLimit
		}

		return apperrors.New(category, fmt.Sprintf("Strava API error: %s", resp.Status)).
			WithContext("code", resp.StatusCode).
			WithContext("url", req.URL.String()).
			WithContext("response", bodyStr)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return apperrors.Wrap(err, apperrors.CategoryAPI, "failed to decode response").
				WithContext("url", req.URL.String())
		}
	}
	return nil
}

// ListActivities returns the athlete's activities within the given range,
// newest pages first as served by the API, paginating until exhausted.
// A zero range lists everything.
func (c *Client) ListActivities(ctx context.Context, tr timerange.Range, perPage int) ([]Activity, error) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	var all []Activity
	page := 1
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("per_page", strconv.Itoa(perPage))
		if after := tr.AfterEpoch(); after > 0 {
			query.Set("after", strconv.FormatInt(after, 10))
		}
		if before := tr.BeforeEpoch(); before > 0 {
			query.Set("before", strconv.FormatInt(before, 10))
		}

		req, err := c.newRequest(ctx, "/athlete/activities", query)
		if err != nil {
			return nil, err
		}

		var batch []Activity
		if err := c.do(req, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)

		if len(batch) < perPage {
			break
		}
		page++
	}

	return all, nil
}

// Activity returns a single activity with full detail.
func (c *Client) Activity(ctx context.Context, id int64) (*Activity, error) {
	req, err := c.newRequest(ctx, fmt.Sprintf("/activities/%d", id), nil)
	if err != nil {
		return nil, err
	}
	var a Activity
	if err := c.do(req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ActivityStreams returns the coordinate, altitude and time series of an
// activity, keyed by stream type.
func (c *Client) ActivityStreams(ctx context.Context, id int64) (*StreamSet, error) {
	query := url.Values{}
	query.Set("keys", "latlng,altitude,time")
	query.Set("key_by_type", "true")

	req, err := c.newRequest(ctx, fmt.Sprintf("/activities/%d/streams", id), query)
	if err != nil {
		return nil, err
	}
	var set StreamSet
	if err := c.do(req, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// Athlete returns the authenticated athlete's profile.
func (c *Client) Athlete(ctx context.Context) (*Athlete, error) {
	req, err := c.newRequest(ctx, "/athlete", nil)
	if err != nil {
		return nil, err
	}
	var a Athlete
	if err := c.do(req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Gear returns a gear item (bike) by ID.
func (c *Client) Gear(ctx context.Context, id string) (*Gear, error) {
	req, err := c.newRequest(ctx, "/gear/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var g Gear
	if err := c.do(req, &g); err != nil {
		return nil, err
	}
	return &g, nil
}
