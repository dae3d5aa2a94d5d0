// Package github is the profile-data collector: it fetches user metadata, the
// full repository collection, and a commit-count summary from the GitHub REST
// API.
//
// DESIGN NOTES:
//   - No retries here. A single failed call surfaces as an upstream error and
//     aborts the collect phase — the pipeline's cache makes completed runs
//     replayable, so we'd rather fail fast than mask a flaky upstream.
//   - We decode only the response fields the deriver consumes. GitHub returns
//     much larger objects; json.Decode silently ignores the rest.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/github-wrapped/internal/apperror"
	"github.com/sakif/github-wrapped/internal/config"
)

// ErrTooManyPages marks a repository listing that kept returning non-empty
// pages past the configured ceiling. The naive "loop until an empty page"
// termination condition trusts the upstream; this sentinel is the guard for
// an upstream that never delivers one.
var ErrTooManyPages = errors.New("repository listing exceeded the page ceiling")

// ProfileInfo is the portion of the GitHub /users/{username} response we care
// about.
//
// Collaborators is a pointer because the public users endpoint does not
// actually return it for arbitrary users — it stays nil rather than zero so
// "unknown" and "none" remain distinguishable downstream.
type ProfileInfo struct {
	AvatarURL     string `json:"avatar_url"`
	Name          string `json:"name"`
	Bio           string `json:"bio"`
	Followers     int    `json:"followers"`
	Collaborators *int   `json:"collaborators"`
}

// Repo is one entry of the /users/{username}/repos listing.
type Repo struct {
	StargazersCount int     `json:"stargazers_count"`
	Size            int     `json:"size"` // kilobytes; the deriver uses it as a contribution proxy
	Language        *string `json:"language"`
}

// CommitSummary is the /search/commits response; only the total match count
// is consumed by later stages.
type CommitSummary struct {
	TotalCount int `json:"total_count"`
}

// Client talks to the GitHub REST API with a bearer token.
type Client struct {
	baseURL    string
	perPage    int
	maxPages   int
	httpClient *http.Client
}

// NewClient builds a Client from config.
//
// oauth2.NewClient with a static token source returns an *http.Client whose
// transport adds "Authorization: Bearer <token>" to every request — the same
// mechanism the OAuth flow uses, just with a fixed process-wide token.
func NewClient(cfg config.GitHubConfig) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = 30 * time.Second

	perPage := cfg.PerPage
	if perPage <= 0 || perPage > 100 {
		perPage = 100 // GitHub's cap
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 1000
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		perPage:    perPage,
		maxPages:   maxPages,
		httpClient: httpClient,
	}
}

// Profile fetches the user's public profile. One request, no pagination.
func (c *Client) Profile(ctx context.Context, username string) (*ProfileInfo, error) {
	var info ProfileInfo
	endpoint := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(username))
	if err := c.get(ctx, endpoint, nil, &info); err != nil {
		return nil, apperror.UpstreamFailed("profile fetch", err)
	}
	return &info, nil
}

// AllRepositories fetches every repository of the user by walking pages of up
// to perPage entries until a page comes back empty.
//
// Termination: the loop stops on the first empty page, or fails with
// ErrTooManyPages once the page counter passes the ceiling. It can never spin
// forever on an upstream that always returns items.
func (c *Client) AllRepositories(ctx context.Context, username string) ([]Repo, error) {
	endpoint := fmt.Sprintf("%s/users/%s/repos", c.baseURL, url.PathEscape(username))

	var all []Repo
	for page := 1; ; page++ {
		if page > c.maxPages {
			return nil, apperror.UpstreamFailed("repository listing", ErrTooManyPages)
		}

		query := url.Values{
			"page":     {fmt.Sprintf("%d", page)},
			"per_page": {fmt.Sprintf("%d", c.perPage)},
		}

		var repos []Repo
		if err := c.get(ctx, endpoint+"?"+query.Encode(), nil, &repos); err != nil {
			return nil, apperror.UpstreamFailed("repository listing", err)
		}
		if len(repos) == 0 {
			return all, nil
		}
		all = append(all, repos...)
	}
}

// CommitSummary fetches the total number of commit-search matches authored by
// the user. The cloak-preview Accept header is what GitHub's commit search
// endpoint historically required.
func (c *Client) CommitSummary(ctx context.Context, username string) (*CommitSummary, error) {
	query := url.Values{"q": {"author:" + username}}
	endpoint := fmt.Sprintf("%s/search/commits?%s", c.baseURL, query.Encode())

	headers := http.Header{"Accept": {"application/vnd.github.cloak-preview"}}

	var summary CommitSummary
	if err := c.get(ctx, endpoint, headers, &summary); err != nil {
		return nil, apperror.UpstreamFailed("commit search", err)
	}
	return &summary, nil
}

// get performs one GET request and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint string, headers http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling GitHub: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GitHub returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding GitHub response: %w", err)
	}
	return nil
}
