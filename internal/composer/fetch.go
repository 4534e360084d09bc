package composer

import (
	"context"
	"sync"

	"github.com/weftdev/weft/internal/cache"
)

// fetchType distinguishes raw-markup fetches from JSON data fetches.
type fetchType int

const (
	fetchText fetchType = iota
	fetchJSON
)

// fetchRequest is one remote fetch discovered at a descriptor level.
type fetchRequest struct {
	typ  fetchType
	name string
	url  string
}

// fetchResult carries the outcome of one request. A failed fetch is isolated
// to its result; it never cancels or fails sibling fetches.
type fetchResult struct {
	text  string
	value interface{}
	err   error
}

// fetcher schedules the remote fetches of one descriptor level. The blocking
// build uses the sequential strategy, the concurrent build the batched one;
// everything else about composition is shared.
type fetcher interface {
	fetchAll(ctx context.Context, reqs []fetchRequest) []fetchResult
}

type sequentialFetcher struct {
	caches *cache.Manager
}

func (f *sequentialFetcher) fetchAll(ctx context.Context, reqs []fetchRequest) []fetchResult {
	results := make([]fetchResult, len(reqs))
	for i, req := range reqs {
		results[i] = fetchOne(ctx, f.caches, req)
	}

	return results
}

type concurrentFetcher struct {
	caches *cache.Manager
}

func (f *concurrentFetcher) fetchAll(ctx context.Context, reqs []fetchRequest) []fetchResult {
	results := make([]fetchResult, len(reqs))

	var wg sync.WaitGroup
	for i := range reqs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = fetchOne(ctx, f.caches, reqs[i])
		}(i)
	}
	wg.Wait()

	return results
}

func fetchOne(ctx context.Context, caches *cache.Manager, req fetchRequest) fetchResult {
	switch req.typ {
	case fetchJSON:
		value, err := caches.RemoteJSON(ctx, req.url)
		return fetchResult{value: value, err: err}
	default:
		text, err := caches.Remote(ctx, req.url)
		return fetchResult{text: text, err: err}
	}
}
