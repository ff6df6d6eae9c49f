package resource

import (
	"context"
	"fmt"
)

// FetchFunc retrieves one resource. (*Fetcher).Fetch is a FetchFunc[string].
type FetchFunc[T any] func(ctx context.Context, req Request) (T, error)

// JoinAll fetches every request concurrently and returns once all of them have
// succeeded, or as soon as the first one fails.
//
// Completion order does not matter. On the first failure JoinAll returns that error
// without waiting for the remaining fetches; their results are dropped when they arrive.
// A result for a name that is already recorded is ignored. JoinAll has no timeout of its
// own: it waits until every fetch reports or ctx is done.
func JoinAll[T any](ctx context.Context, requests []Request, fetch FetchFunc[T]) (Bundle[T], error) {
	if len(requests) == 0 {
		return Bundle[T]{}, nil
	}

	pending := make(map[string]struct{}, len(requests))
	for _, req := range requests {
		if req.Name == "" {
			return nil, fmt.Errorf("%w (location %q)", ErrUnnamed, req.Location)
		}
		if _, dup := pending[req.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, req.Name)
		}
		pending[req.Name] = struct{}{}
	}

	// Every fetch sends exactly once, so a buffer of len(requests) never blocks a sender,
	// even after JoinAll has returned.
	results := make(chan Result[T], len(requests))
	for _, req := range requests {
		go func(req Request) {
			results <- runFetch(ctx, req, fetch)
		}(req)
	}

	return collect(ctx, results, pending)
}

func runFetch[T any](ctx context.Context, req Request, fetch FetchFunc[T]) (res Result[T]) {
	res.Name = req.Name
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("fetch %q panicked: %v", req.Name, r)
		}
	}()
	res.Value, res.Err = fetch(ctx, req)
	return res
}

// collect drains results until every pending name has succeeded or one has failed.
func collect[T any](ctx context.Context, results <-chan Result[T], pending map[string]struct{}) (Bundle[T], error) {
	bundle := make(Bundle[T], len(pending))
	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res, ok := <-results:
			if !ok {
				return nil, ErrIncomplete
			}
			if _, waiting := pending[res.Name]; !waiting {
				continue
			}
			if res.Err != nil {
				return nil, res.Err
			}
			bundle[res.Name] = res.Value
			delete(pending, res.Name)
		}
	}
	return bundle, nil
}
