package stats

import (
	"context"
	"sync"

	"github.com/git-pkgs/packagecloud/internal/core"
	"go.uber.org/zap"
)

const defaultConcurrency = 4

// BulkCount fetches download counts for pkgs in parallel, keyed by package
// URL. Individual failures are logged and omitted from the result.
func (s *Service) BulkCount(ctx context.Context, pkgs []core.Package, r Range) map[string]int {
	return s.BulkCountWithConcurrency(ctx, pkgs, r, defaultConcurrency)
}

// BulkCountWithConcurrency is BulkCount with a custom concurrency limit.
func (s *Service) BulkCountWithConcurrency(ctx context.Context, pkgs []core.Package, r Range, concurrency int) map[string]int {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make(map[string]int, len(pkgs))
	var mu sync.Mutex
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i := range pkgs {
		wg.Add(1)
		go func(pkg *core.Package) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			n, err := s.Count(ctx, pkg, r)
			if err != nil {
				s.client.Logger().Warn("download count failed",
					zap.String("filename", pkg.Filename),
					zap.Error(err))
				return
			}

			mu.Lock()
			results[pkg.PURL()] = n
			mu.Unlock()
		}(&pkgs[i])
	}

	wg.Wait()
	return results
}
