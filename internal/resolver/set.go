package resolver

import (
	"context"
	"sort"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"

	"github.com/maxkimambo/barista/internal/errors"
)

// Set is a collection of resolvers keyed by ID
type Set struct {
	resolvers *xsync.MapOf[string, Resolver]
}

func NewSet() *Set {
	return &Set{resolvers: xsync.NewMapOf[string, Resolver]()}
}

// Add stores r unless a resolver with the same ID is present. It returns the
// stored resolver and whether r was added.
func (s *Set) Add(r Resolver) (Resolver, bool) {
	actual, loaded := s.resolvers.LoadOrStore(r.ID(), r)
	return actual, !loaded
}

// Len returns the number of distinct resolvers
func (s *Set) Len() int {
	return s.resolvers.Size()
}

// Resolvers returns the resolvers sorted by ID
func (s *Set) Resolvers() []Resolver {
	var result []Resolver
	s.resolvers.Range(func(_ string, r Resolver) bool {
		result = append(result, r)
		return true
	})
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}

// Resolve resolves every resolver with at most workers running at once and
// returns all failures together.
func (s *Set) Resolve(ctx context.Context, workers int) error {
	if workers < 1 {
		workers = 1
	}

	resolvers := s.Resolvers()
	results := make([]error, len(resolvers))

	var g errgroup.Group
	g.SetLimit(workers)

	for i, r := range resolvers {
		i, r := i, r
		g.Go(func() error {
			results[i] = r.Resolve(ctx)
			return nil
		})
	}
	_ = g.Wait()

	var errs *errors.MultiError
	for _, err := range results {
		if err != nil {
			errs = errs.Append(err)
		}
	}
	return errs.ErrorOrNil()
}
