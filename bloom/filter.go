// Package bloom provides probabilistic link deduplication for manifest
// parsing. A false positive drops a duplicate-looking link; false negatives
// cannot occur, so every genuinely new link survives.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter tracks which link URLs have already been seen.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a filter sized for n expected links with the given false
// positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Seen records the URL and reports whether it was already present.
func (f *Filter) Seen(url string) bool {
	return f.f.TestOrAddString(url)
}
