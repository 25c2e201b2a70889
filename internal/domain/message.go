package domain

// QuoteMessage is the display payload handed to the messaging collaborator.
type QuoteMessage struct {
	Text      string
	MonthName string
	Year      string
}

// NewQuoteMessage builds the display payload for a quote.
func NewQuoteMessage(q Quote) QuoteMessage {
	return QuoteMessage{
		Text:      q.Text,
		MonthName: q.MonthName(),
		Year:      q.Year,
	}
}
