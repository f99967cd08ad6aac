package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/geo"
)

const (
	RankerRandom  = "random"
	RankerNearest = "nearest"
)

// CandidateRanker orders eligible candidates before the cascade charges
// them. Ordering never changes eligibility, only who is tried first.
type CandidateRanker interface {
	Rank(ctx context.Context, lead *domain.Lead, candidates []domain.Provider) []domain.Provider
}

// NewRanker builds the ranker selected by configuration.
func NewRanker(strategy string, distance *geo.Distance) (CandidateRanker, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", RankerRandom:
		return NewRandomRanker(rand.Intn), nil
	case RankerNearest:
		if distance == nil {
			return nil, fmt.Errorf("nearest ranker requires a distance calculator")
		}
		return &NearestFirstRanker{distance: distance}, nil
	default:
		return nil, fmt.Errorf("unknown ranker strategy %q", strategy)
	}
}

// RandomRanker shuffles candidates so lead volume spreads across
// providers by chance rather than by priority.
type RandomRanker struct {
	randIntn func(n int) int
}

func NewRandomRanker(randIntn func(n int) int) *RandomRanker {
	if randIntn == nil {
		randIntn = rand.Intn
	}
	return &RandomRanker{randIntn: randIntn}
}

func (r *RandomRanker) Rank(_ context.Context, _ *domain.Lead, candidates []domain.Provider) []domain.Provider {
	ordered := make([]domain.Provider, len(candidates))
	copy(ordered, candidates)

	for i := len(ordered) - 1; i > 0; i-- {
		j := r.randIntn(i + 1)
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}
	return ordered
}

// NearestFirstRanker orders candidates by ascending geocoded distance
// from the provider's home ZIP to the lead ZIP. Candidates whose
// distance cannot be resolved sort last, in their incoming order.
type NearestFirstRanker struct {
	distance *geo.Distance
}

func NewNearestFirstRanker(distance *geo.Distance) *NearestFirstRanker {
	return &NearestFirstRanker{distance: distance}
}

func (r *NearestFirstRanker) Rank(ctx context.Context, lead *domain.Lead, candidates []domain.Provider) []domain.Provider {
	type ranked struct {
		provider domain.Provider
		miles    *float64
		position int
	}

	entries := make([]ranked, 0, len(candidates))
	for i, p := range candidates {
		entry := ranked{provider: p, position: i}
		if homeZip, ok := p.HomeZip(); ok && lead != nil {
			if miles, err := r.distance.Miles(ctx, homeZip, lead.Zip); err == nil {
				entry.miles = miles
			}
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch {
		case a.miles != nil && b.miles != nil:
			return *a.miles < *b.miles
		case a.miles != nil:
			return true
		case b.miles != nil:
			return false
		default:
			return a.position < b.position
		}
	})

	ordered := make([]domain.Provider, 0, len(entries))
	for _, entry := range entries {
		ordered = append(ordered, entry.provider)
	}
	return ordered
}
