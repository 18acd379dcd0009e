// Package github fetches the public statistics shown on the home page from
// the GitHub REST API.
//
// Three figures are derived from three calls:
//
//   - joinedYear:     GET /users/{user}                       → created_at
//   - commitCount:    GET /search/commits?q=author:{user}     → total_count
//   - collaborations: GET /search/issues?q=type:pr author:{user} -user:{user}
//     → total_count (pull requests opened against other people's repositories)
//
// Unauthenticated requests work but are heavily rate limited. When a token
// is configured, requests go through an oauth2 client that adds the
// Authorization header to every call.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sudeepta/portfolio/internal/apperror"
	"github.com/sudeepta/portfolio/internal/model"
)

// DefaultBaseURL is the public GitHub REST API.
const DefaultBaseURL = "https://api.github.com"

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, without a trailing slash. Tests point it at
	// an httptest server.
	BaseURL string
	// Token is an optional personal access token.
	Token string
	// Timeout bounds each HTTP call. The poller's per-fetch context
	// usually cuts in first.
	Timeout time.Duration
}

// Client implements stats.Fetcher against the GitHub REST API.
type Client struct {
	base   string
	http   *http.Client
	logger *slog.Logger
}

// NewClient builds a Client. With a token, the HTTP client comes from
// oauth2.NewClient with a static token source; without one, a plain
// client with the configured timeout is used.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.Token != "" {
		// oauth2.NewClient reads the base transport from the context under
		// oauth2.HTTPClient, so our timeout-bearing client is reused.
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
		httpClient.Timeout = cfg.Timeout
	}

	return &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		http:   httpClient,
		logger: logger,
	}
}

type userResponse struct {
	Login     string    `json:"login"`
	CreatedAt time.Time `json:"created_at"`
}

type searchResponse struct {
	TotalCount int `json:"total_count"`
}

// Fetch returns the current statistics for username.
//
// Any failed call fails the whole fetch: a partially updated payload would
// break the "replace wholesale" contract the poller relies on.
func (c *Client) Fetch(ctx context.Context, username string) (model.GithubStats, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.GithubStats{}, apperror.ConfigMissing("GITHUB_USERNAME")
	}

	var user userResponse
	if err := c.get(ctx, "/users/"+url.PathEscape(username), nil, &user); err != nil {
		return model.GithubStats{}, fmt.Errorf("github: fetching user %s: %w", username, err)
	}

	var commits searchResponse
	if err := c.get(ctx, "/search/commits", url.Values{"q": {"author:" + username}}, &commits); err != nil {
		return model.GithubStats{}, fmt.Errorf("github: counting commits: %w", err)
	}

	var prs searchResponse
	q := fmt.Sprintf("type:pr author:%s -user:%s", username, username)
	if err := c.get(ctx, "/search/issues", url.Values{"q": {q}}, &prs); err != nil {
		return model.GithubStats{}, fmt.Errorf("github: counting collaborations: %w", err)
	}

	stats := model.GithubStats{
		CommitCount:    commits.TotalCount,
		Collaborations: prs.TotalCount,
		JoinedYear:     user.CreatedAt.Year(),
	}

	c.logger.Debug("github stats fetched",
		slog.String("username", username),
		slog.Int("commits", stats.CommitCount),
		slog.Int("collaborations", stats.Collaborations),
	)

	return stats, nil
}

// get issues a GET against the API and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperror.TransportFailure("github request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperror.TransportFailure(
			fmt.Sprintf("github %s returned status %d", path, resp.StatusCode),
			fmt.Errorf("unexpected status %d", resp.StatusCode),
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
