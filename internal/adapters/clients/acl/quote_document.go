package acl

import (
	"bytes"
	"encoding/json"

	"github.com/jsamuelsen/quote-cache-service/internal/domain"
)

// ParseQuoteDocument translates the remote quote document into a collection.
//
// The document is shaped {year: {month: [text, ...]}}. Only the top level is
// strict: anything other than a JSON object fails with a
// *domain.MalformedDocumentError. Below that, a year that is not an object, a
// month that is not an array, or an element that is not a string is skipped
// and the rest of the document is still used.
//
// The returned count is the number of quotes included, which always equals
// the collection's Size.
func ParseQuoteDocument(raw []byte) (*domain.QuoteCollection, int, error) {
	if !json.Valid(raw) {
		return nil, 0, domain.NewMalformedDocumentError("invalid JSON", nil)
	}

	if !isJSONObject(raw) {
		return nil, 0, domain.NewMalformedDocumentError("top level is not an object", nil)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, 0, domain.NewMalformedDocumentError("decoding top level", err)
	}

	years := make(map[string]*domain.QuoteYear, len(top))

	for yearLabel, yearRaw := range top {
		year, ok := translateYear(yearLabel, yearRaw)
		if !ok {
			continue
		}

		years[yearLabel] = year
	}

	collection := domain.NewQuoteCollection(years)

	return collection, collection.Size(), nil
}

func translateYear(yearLabel string, raw json.RawMessage) (*domain.QuoteYear, bool) {
	if !isJSONObject(raw) {
		return nil, false
	}

	var months map[string]json.RawMessage
	if err := json.Unmarshal(raw, &months); err != nil {
		return nil, false
	}

	year := &domain.QuoteYear{Months: make(map[string]*domain.QuoteMonth, len(months))}

	for monthLabel, monthRaw := range months {
		month, ok := translateMonth(yearLabel, monthLabel, monthRaw)
		if !ok {
			continue
		}

		year.Months[monthLabel] = month
	}

	return year, true
}

func translateMonth(yearLabel, monthLabel string, raw json.RawMessage) (*domain.QuoteMonth, bool) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil || elements == nil {
		return nil, false
	}

	month := &domain.QuoteMonth{Quotes: make([]domain.Quote, 0, len(elements))}

	for _, el := range elements {
		var text string
		if !isJSONString(el) || json.Unmarshal(el, &text) != nil {
			continue
		}

		month.Quotes = append(month.Quotes, domain.Quote{
			Year:  yearLabel,
			Month: monthLabel,
			Text:  text,
		})
	}

	return month, true
}

// isJSONObject reports whether raw holds an object. A bare null decodes into a
// map without error, so the first byte is checked instead.
func isJSONObject(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func isJSONString(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}
