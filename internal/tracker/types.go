// Package tracker models the remote issue tracker: closed items (issues and
// pull requests), the lifecycle events attached to them, and the read-only
// Remote interface the reconciliation pipeline talks to.
//
// It also holds the pure event-stream operations (normalize, merge with a
// cached snapshot, filter by kind) so they can be tested without I/O.
package tracker

import (
	"context"
	"time"
)

// Kind is the type of a lifecycle event as reported by the remote API.
type Kind string

const (
	KindClosed Kind = "closed"
	KindMerged Kind = "merged"
)

// Item is a closed issue or pull request.
type Item struct {
	Number int
	Title  string
	URL    string
	Author string
	Labels []string

	// IsPullRequest marks a proposed change rather than a plain issue.
	IsPullRequest bool

	ClosedAt *time.Time

	// ClosedBy is set by correlation when another item closed at the same
	// instant as this one. Nil means no attribution was made.
	ClosedBy *Item
}

// IsClosed reports whether the item carries a closure timestamp.
func (i *Item) IsClosed() bool {
	return i.ClosedAt != nil && !i.ClosedAt.IsZero()
}

// Event is an immutable lifecycle event from the repository event stream.
// It refers to its item by number; ItemTitle and ItemIsPullRequest are the
// remote's denormalised copy, used when the item itself was not fetched.
type Event struct {
	ID                int64     `yaml:"id"`
	Kind              Kind      `yaml:"kind"`
	CreatedAt         time.Time `yaml:"created_at"`
	ItemNumber        int       `yaml:"item"`
	ItemTitle         string    `yaml:"item_title,omitempty"`
	ItemIsPullRequest bool      `yaml:"item_is_pull_request,omitempty"`
}

// ListItemsOptions scopes the closed-items query.
type ListItemsOptions struct {
	Owner  string
	Repo   string
	Since  time.Time
	Labels []string
}

// Remote is the read surface of the issue tracker. Every call is a single
// request; implementations do not retry.
type Remote interface {
	// ListClosedItems returns one page of closed items, most recently
	// updated first.
	ListClosedItems(ctx context.Context, opts ListItemsOptions, page, perPage int) ([]Item, error)

	// ListRepositoryEvents returns one page of issue events, newest first.
	ListRepositoryEvents(ctx context.Context, owner, repo string, page, perPage int) ([]Event, error)

	// MergeStatus reports whether pull request number was merged.
	MergeStatus(ctx context.Context, owner, repo string, number int) (bool, error)
}
