package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-cache-service/internal/domain"
	"github.com/jsamuelsen/quote-cache-service/internal/mocks"
)

// stubStore is a QuoteStore returning a fixed result.
type stubStore struct {
	collection *domain.QuoteCollection
	err        error
	calls      int
}

func (s *stubStore) Quotes(context.Context) (*domain.QuoteCollection, error) {
	s.calls++

	return s.collection, s.err
}

func (s *stubStore) Stats() CacheStats {
	return CacheStats{Loaded: s.collection != nil, Size: s.collection.Size()}
}

func TestNewQuoteService_PanicsWithoutCache(t *testing.T) {
	assert.Panics(t, func() {
		NewQuoteService(QuoteServiceConfig{Cache: nil})
	})
}

func TestNewQuoteService_DefaultsLogger(t *testing.T) {
	svc := NewQuoteService(QuoteServiceConfig{Cache: &stubStore{}})

	require.NotNil(t, svc)
}

func TestQuoteService_GetRandomQuote(t *testing.T) {
	tests := []struct {
		name      string
		store     *stubStore
		wantQuote domain.Quote
		errCheck  func(error) bool
	}{
		{
			name:      "selects from snapshot",
			store:     &stubStore{collection: collectionOf("2020", "3", "hello", "world")},
			wantQuote: domain.Quote{Year: "2020", Month: "3", Text: "world"},
		},
		{
			name:     "empty cache",
			store:    &stubStore{err: domain.ErrEmptyCache},
			errCheck: domain.IsEmptyCache,
		},
		{
			name:     "loaded but no quotes",
			store:    &stubStore{collection: domain.NewQuoteCollection(nil)},
			errCheck: domain.IsNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewQuoteService(QuoteServiceConfig{
				Cache:  tt.store,
				Random: fixedIndex(1),
				Logger: discardLogger(),
			})

			quote, err := svc.GetRandomQuote(context.Background())

			if tt.errCheck != nil {
				require.Error(t, err)
				assert.True(t, tt.errCheck(err))
				assert.Equal(t, domain.Quote{}, quote)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantQuote, quote)
		})
	}
}

func TestQuoteService_Stats(t *testing.T) {
	svc := NewQuoteService(QuoteServiceConfig{
		Cache:  &stubStore{collection: collectionOf("2020", "3", "a", "b")},
		Logger: discardLogger(),
	})

	stats := svc.Stats()

	assert.True(t, stats.Loaded)
	assert.Equal(t, 2, stats.Size)
}

func TestQuoteService_HandleInvocation(t *testing.T) {
	wantMsg := domain.QuoteMessage{Text: "hello", MonthName: "March", Year: "2020"}

	tests := []struct {
		name        string
		inv         Invocation
		store       *stubStore
		setupSender func(*mocks.MockMessageSender)
		wantOutcome Outcome
		wantQuery   string
		wantQuote   *domain.QuoteMessage
		wantCalls   int
		errCheck    func(error) bool
	}{
		{
			name:        "bot author is ignored",
			inv:         Invocation{Content: "[]says", ChannelID: "c1", AuthorIsBot: true},
			store:       &stubStore{collection: collectionOf("2020", "3", "hello")},
			wantOutcome: OutcomeIgnored,
		},
		{
			name:        "unrelated channel message is ignored",
			inv:         Invocation{Content: "good morning", ChannelID: "c1"},
			store:       &stubStore{collection: collectionOf("2020", "3", "hello")},
			wantOutcome: OutcomeIgnored,
		},
		{
			name:  "unrelated private message gets help",
			inv:   Invocation{Content: "hi bot", ChannelID: "dm1", Private: true},
			store: &stubStore{collection: collectionOf("2020", "3", "hello")},
			setupSender: func(m *mocks.MockMessageSender) {
				m.EXPECT().SendText(mock.Anything, "dm1", HelpText).Return(nil).Once()
			},
			wantOutcome: OutcomeHelp,
		},
		{
			name:        "query is a no-op",
			inv:         Invocation{Content: "[]says march 2020", ChannelID: "c1"},
			store:       &stubStore{collection: collectionOf("2020", "3", "hello")},
			wantOutcome: OutcomeQueryUnsupported,
			wantQuery:   "march 2020",
		},
		{
			name:  "empty query sends a quote",
			inv:   Invocation{Content: "[]says", ChannelID: "c1"},
			store: &stubStore{collection: collectionOf("2020", "3", "hello")},
			setupSender: func(m *mocks.MockMessageSender) {
				m.EXPECT().SendQuote(mock.Anything, "c1", wantMsg).Return(nil).Once()
			},
			wantOutcome: OutcomeSent,
			wantQuote:   &wantMsg,
			wantCalls:   1,
		},
		{
			name:  "whitespace-only query sends a quote",
			inv:   Invocation{Content: "[]says   ", ChannelID: "c1"},
			store: &stubStore{collection: collectionOf("2020", "3", "hello")},
			setupSender: func(m *mocks.MockMessageSender) {
				m.EXPECT().SendQuote(mock.Anything, "c1", wantMsg).Return(nil).Once()
			},
			wantOutcome: OutcomeSent,
			wantQuote:   &wantMsg,
			wantCalls:   1,
		},
		{
			name:      "empty cache declines",
			inv:       Invocation{Content: "[]says", ChannelID: "c1"},
			store:     &stubStore{err: domain.ErrEmptyCache},
			wantCalls: 1,
			errCheck:  domain.IsEmptyCache,
		},
		{
			name:  "send failure is returned",
			inv:   Invocation{Content: "[]says", ChannelID: "c1"},
			store: &stubStore{collection: collectionOf("2020", "3", "hello")},
			setupSender: func(m *mocks.MockMessageSender) {
				m.EXPECT().SendQuote(mock.Anything, "c1", wantMsg).
					Return(domain.NewUnavailableError("chat-gateway", "rate limited")).Once()
			},
			wantCalls: 1,
			errCheck:  domain.IsUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := mocks.NewMockMessageSender(t)
			if tt.setupSender != nil {
				tt.setupSender(sender)
			}

			svc := NewQuoteService(QuoteServiceConfig{
				Cache:  tt.store,
				Sender: sender,
				Logger: discardLogger(),
			})

			result, err := svc.HandleInvocation(context.Background(), tt.inv)

			assert.Equal(t, tt.wantCalls, tt.store.calls)

			if tt.errCheck != nil {
				require.Error(t, err)
				assert.True(t, tt.errCheck(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, result.Outcome)
			assert.Equal(t, tt.wantQuery, result.Query)
			assert.Equal(t, tt.wantQuote, result.Quote)
		})
	}
}

func TestQuoteService_HandleInvocationWithoutSender(t *testing.T) {
	svc := NewQuoteService(QuoteServiceConfig{
		Cache:  &stubStore{collection: collectionOf("2018", "12", "ho ho")},
		Logger: discardLogger(),
	})

	result, err := svc.HandleInvocation(context.Background(), Invocation{Content: "[]says"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRendered, result.Outcome)
	require.NotNil(t, result.Quote)
	assert.Equal(t, "December", result.Quote.MonthName)

	result, err = svc.HandleInvocation(context.Background(), Invocation{Content: "help?", Private: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeHelp, result.Outcome)
	assert.Equal(t, HelpText, result.Reply)
}

func TestQuoteService_HelpSendFailure(t *testing.T) {
	sender := mocks.NewMockMessageSender(t)
	sender.EXPECT().SendText(mock.Anything, "dm1", HelpText).Return(errors.New("boom")).Once()

	svc := NewQuoteService(QuoteServiceConfig{
		Cache:  &stubStore{},
		Sender: sender,
		Logger: discardLogger(),
	})

	_, err := svc.HandleInvocation(context.Background(), Invocation{Content: "hello", ChannelID: "dm1", Private: true})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending help text")
}

func TestQuoteService_MentionInvocation(t *testing.T) {
	sender := mocks.NewMockMessageSender(t)
	sender.EXPECT().SendQuote(mock.Anything, "c1", mock.AnythingOfType("domain.QuoteMessage")).Return(nil).Once()

	svc := NewQuoteService(QuoteServiceConfig{
		Cache:     &stubStore{collection: collectionOf("2020", "3", "hello")},
		Sender:    sender,
		BotUserID: "1234",
		Logger:    discardLogger(),
	})

	result, err := svc.HandleInvocation(context.Background(), Invocation{Content: "<@!1234>", ChannelID: "c1"})

	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, result.Outcome)
}
