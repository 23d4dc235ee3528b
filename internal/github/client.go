// Package github implements tracker.Remote on top of the GitHub REST API.
//
// Every method issues exactly one request and never retries; rate limiting
// and authentication failures come back as wrapped sentinel errors so the
// CLI can print a remediation hint.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ariel-frischer/issuelog/internal/tracker"
	gh "github.com/google/go-github/v74/github"
	"golang.org/x/oauth2"
)

var (
	// ErrRateLimited is returned when GitHub rejects a request because the
	// primary or secondary rate limit was hit.
	ErrRateLimited = errors.New("github rate limit exceeded")
	// ErrUnauthorized is returned for 401 responses.
	ErrUnauthorized = errors.New("github authentication failed")
	// ErrNotFound is returned for 404 responses on listing endpoints, which
	// usually means a wrong owner/repo or a private repo without credentials.
	ErrNotFound = errors.New("github repository not found")
)

// Credentials are already-obtained secrets. Token takes precedence over
// Username/Password. The zero value means anonymous access.
type Credentials struct {
	Token    string
	Username string
	Password string
}

// Options configures a Client.
type Options struct {
	Credentials Credentials
	// BaseURL overrides the API root, e.g. for GitHub Enterprise or tests.
	BaseURL string
	// HTTPClient is the underlying transport. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// UserAgent is sent with every request.
	UserAgent string
}

// Client talks to one GitHub API endpoint.
type Client struct {
	gh *gh.Client
}

var _ tracker.Remote = (*Client)(nil)

// NewClient builds a Client from opts.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	hc := httpClient(ctx, opts)

	client := gh.NewClient(hc)
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parsing base URL %q: %w", opts.BaseURL, err)
		}
		client.BaseURL = u
	}
	if opts.UserAgent != "" {
		client.UserAgent = opts.UserAgent
	}
	return &Client{gh: client}, nil
}

// httpClient layers authentication over the base transport.
func httpClient(ctx context.Context, opts Options) *http.Client {
	base := opts.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	creds := opts.Credentials

	switch {
	case creds.Token != "":
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.Token})
		return oauth2.NewClient(ctx, ts)
	case creds.Username != "":
		tp := &gh.BasicAuthTransport{
			Username:  creds.Username,
			Password:  creds.Password,
			Transport: base.Transport,
		}
		return &http.Client{Transport: tp, Timeout: base.Timeout}
	default:
		return base
	}
}

// ListClosedItems lists closed issues and pull requests updated since
// opts.Since, most recently updated first.
func (c *Client) ListClosedItems(ctx context.Context, opts tracker.ListItemsOptions, page, perPage int) ([]tracker.Item, error) {
	req := &gh.IssueListByRepoOptions{
		State:     "closed",
		Sort:      "updated",
		Direction: "desc",
		Since:     opts.Since,
		Labels:    opts.Labels,
		ListOptions: gh.ListOptions{
			Page:    page,
			PerPage: perPage,
		},
	}

	issues, _, err := c.gh.Issues.ListByRepo(ctx, opts.Owner, opts.Repo, req)
	if err != nil {
		return nil, classify(fmt.Sprintf("listing closed issues of %s/%s", opts.Owner, opts.Repo), err)
	}

	items := make([]tracker.Item, 0, len(issues))
	for _, is := range issues {
		items = append(items, toItem(is))
	}
	return items, nil
}

// ListRepositoryEvents lists issue events of the repository, newest first.
func (c *Client) ListRepositoryEvents(ctx context.Context, owner, repo string, page, perPage int) ([]tracker.Event, error) {
	raw, _, err := c.gh.Issues.ListRepositoryEvents(ctx, owner, repo, &gh.ListOptions{Page: page, PerPage: perPage})
	if err != nil {
		return nil, classify(fmt.Sprintf("listing issue events of %s/%s", owner, repo), err)
	}

	events := make([]tracker.Event, 0, len(raw))
	for _, e := range raw {
		events = append(events, toEvent(e))
	}
	return events, nil
}

// MergeStatus reports whether pull request number was merged. GitHub
// answers 404 for "not merged", which go-github maps to false.
func (c *Client) MergeStatus(ctx context.Context, owner, repo string, number int) (bool, error) {
	merged, _, err := c.gh.PullRequests.IsMerged(ctx, owner, repo, number)
	if err != nil {
		return false, classify(fmt.Sprintf("checking merge status of %s/%s#%d", owner, repo, number), err)
	}
	return merged, nil
}

func toItem(is *gh.Issue) tracker.Item {
	item := tracker.Item{
		Number:        is.GetNumber(),
		Title:         is.GetTitle(),
		URL:           is.GetHTMLURL(),
		Author:        is.GetUser().GetLogin(),
		IsPullRequest: is.IsPullRequest(),
	}
	for _, l := range is.Labels {
		item.Labels = append(item.Labels, l.GetName())
	}
	if is.ClosedAt != nil {
		closed := is.ClosedAt.UTC()
		item.ClosedAt = &closed
	}
	return item
}

func toEvent(e *gh.IssueEvent) tracker.Event {
	ev := tracker.Event{
		ID:        e.GetID(),
		Kind:      tracker.Kind(e.GetEvent()),
		CreatedAt: e.GetCreatedAt().UTC(),
	}
	if is := e.GetIssue(); is != nil {
		ev.ItemNumber = is.GetNumber()
		ev.ItemTitle = is.GetTitle()
		ev.ItemIsPullRequest = is.IsPullRequest()
	}
	return ev
}

// classify wraps err with a sentinel when the failure has a known cause.
func classify(op string, err error) error {
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return fmt.Errorf("%s: %w: %v", op, ErrRateLimited, err)
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w: %v", op, ErrUnauthorized, err)
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %v", op, ErrNotFound, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
