package domain

import "math/rand/v2"

// IntNSource is the subset of *rand.Rand used for selection.
type IntNSource interface {
	IntN(n int) int
}

// SelectRandom draws one quote uniformly from the whole collection.
// Every quote has probability 1/Size regardless of how quotes are spread over
// years and months. Returns false only when the collection is empty.
// A nil source uses the package-level generator.
func SelectRandom(c *QuoteCollection, src IntNSource) (Quote, bool) {
	size := c.Size()
	if size == 0 {
		return Quote{}, false
	}

	var idx int
	if src == nil {
		idx = rand.IntN(size) //nolint:gosec // No need for crypto-grade randomness
	} else {
		idx = src.IntN(size)
	}

	return c.flat[idx], true
}
