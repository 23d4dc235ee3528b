// Package paginate walks a page-numbered remote collection one page at a
// time and concatenates the results.
package paginate

import (
	"context"
	"errors"
	"fmt"
)

// DefaultPerPage is the largest page size the GitHub REST API accepts.
const DefaultPerPage = 100

// PageFunc retrieves a single page. Pages are 1-based.
type PageFunc[T any] func(ctx context.Context, page, perPage int) ([]T, error)

// Options controls a Fetch.
type Options[T any] struct {
	// PerPage is the requested batch size. A batch shorter than PerPage
	// is the last page. Defaults to DefaultPerPage.
	PerPage int

	// StartPage is the first page requested. Defaults to 1.
	StartPage int

	// Stop is evaluated on the last record of every full batch. Returning
	// true ends the walk after that batch, e.g. once records are older than
	// a cutoff.
	Stop func(last T) bool

	// OnPage is called after each successful page with its number and size.
	OnPage func(page, size int)
}

// Fetch requests pages sequentially until a short page is returned or Stop
// reports true. Any error aborts the walk and no partial results are
// returned; retrying is the caller's business.
func Fetch[T any](ctx context.Context, opts Options[T], fn PageFunc[T]) ([]T, error) {
	if fn == nil {
		return nil, errors.New("paginate: nil page func")
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	page := opts.StartPage
	if page <= 0 {
		page = 1
	}

	var all []T
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch, err := fn(ctx, page, perPage)
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}
		all = append(all, batch...)

		if opts.OnPage != nil {
			opts.OnPage(page, len(batch))
		}

		if len(batch) < perPage {
			return all, nil
		}
		if opts.Stop != nil && opts.Stop(batch[len(batch)-1]) {
			return all, nil
		}
		page++
	}
}
