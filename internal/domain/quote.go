// Package domain contains core business entities and rules.
package domain

import (
	"sort"
	"strconv"
)

// monthNames maps month numbers 1..12 to their display names.
var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Quote is a single text item attributed to a year/month bucket.
// This is a domain entity - it has no knowledge of external systems.
type Quote struct {
	// Year is the year label, e.g. "2018".
	Year string

	// Month is the month label, numeric "1".."12" in well-formed documents.
	Month string

	// Text is the display string.
	Text string
}

// MonthName returns the human month name for the quote's month label.
// Labels that are not a number in 1..12 are returned unchanged.
func (q Quote) MonthName() string {
	n, err := strconv.Atoi(q.Month)
	if err != nil || n < 1 || n > len(monthNames) {
		return q.Month
	}

	return monthNames[n-1]
}

// QuoteMonth holds the quotes of one month, in document order.
type QuoteMonth struct {
	Quotes []Quote
}

// QuoteYear maps month labels to their quotes.
// Iteration order over Months carries no meaning.
type QuoteYear struct {
	Months map[string]*QuoteMonth
}

// Size returns the number of quotes across all months of the year.
func (y *QuoteYear) Size() int {
	n := 0
	for _, m := range y.Months {
		n += len(m.Quotes)
	}

	return n
}

// QuoteCollection is an immutable snapshot of the hierarchical quote collection.
// The total size is computed once at construction and always equals the sum
// of quote counts over every month of every year.
type QuoteCollection struct {
	years map[string]*QuoteYear
	flat  []Quote
	size  int
}

// NewQuoteCollection builds a collection from a year mapping.
// The caller must not mutate years afterwards.
func NewQuoteCollection(years map[string]*QuoteYear) *QuoteCollection {
	if years == nil {
		years = make(map[string]*QuoteYear)
	}

	size := 0
	for _, y := range years {
		size += y.Size()
	}

	return &QuoteCollection{
		years: years,
		flat:  flatten(years, size),
		size:  size,
	}
}

// Size returns the total number of quotes in the collection.
func (c *QuoteCollection) Size() int {
	if c == nil {
		return 0
	}

	return c.size
}

// Year returns the year with the given label.
func (c *QuoteCollection) Year(label string) (*QuoteYear, bool) {
	if c == nil {
		return nil, false
	}

	y, ok := c.years[label]

	return y, ok
}

// YearLabels returns the year labels in ascending lexical order.
func (c *QuoteCollection) YearLabels() []string {
	if c == nil {
		return nil
	}

	labels := make([]string, 0, len(c.years))
	for label := range c.years {
		labels = append(labels, label)
	}

	sort.Strings(labels)

	return labels
}

// Quotes returns the flattened population of the collection.
// Every quote appears exactly once; the order is stable for a given snapshot.
func (c *QuoteCollection) Quotes() []Quote {
	if c == nil {
		return nil
	}

	out := make([]Quote, len(c.flat))
	copy(out, c.flat)

	return out
}

// flatten walks years and months in sorted label order so that a snapshot
// always flattens to the same sequence.
func flatten(years map[string]*QuoteYear, size int) []Quote {
	flat := make([]Quote, 0, size)

	yearLabels := make([]string, 0, len(years))
	for label := range years {
		yearLabels = append(yearLabels, label)
	}

	sort.Strings(yearLabels)

	for _, yl := range yearLabels {
		months := years[yl].Months

		monthLabels := make([]string, 0, len(months))
		for label := range months {
			monthLabels = append(monthLabels, label)
		}

		sort.Strings(monthLabels)

		for _, ml := range monthLabels {
			flat = append(flat, months[ml].Quotes...)
		}
	}

	return flat
}
