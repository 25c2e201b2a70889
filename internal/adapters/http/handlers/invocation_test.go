package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-cache-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-cache-service/internal/app"
	"github.com/jsamuelsen/quote-cache-service/internal/domain"
	"github.com/jsamuelsen/quote-cache-service/internal/mocks"
)

func TestInvocationHandler_HandleInvocation(t *testing.T) {
	loaded := func(m *mocks.MockQuoteSource) {
		m.EXPECT().FetchQuotes(mock.Anything).Return(singleQuote("2020", "3", "hello"), nil).Once()
	}
	wantMsg := domain.QuoteMessage{Text: "hello", MonthName: "March", Year: "2020"}

	tests := []struct {
		name           string
		body           string
		setupSource    func(*mocks.MockQuoteSource)
		setupSender    func(*mocks.MockMessageSender)
		expectedStatus int
		checkResponse  func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "sends a quote",
			body:        `{"content":"[]says","channelId":"1001"}`,
			setupSource: loaded,
			setupSender: func(m *mocks.MockMessageSender) {
				m.EXPECT().SendQuote(mock.Anything, "1001", wantMsg).Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				t.Helper()
				var resp InvocationResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, string(app.OutcomeSent), resp.Outcome)
				require.NotNil(t, resp.Quote)
				assert.Equal(t, "March", resp.Quote.MonthName)
			},
		},
		{
			name:           "mention with query is acknowledged",
			body:           `{"content":"<@42> 2018","channelId":"1001"}`,
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				t.Helper()
				var resp InvocationResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, string(app.OutcomeQueryUnsupported), resp.Outcome)
				assert.Equal(t, "2018", resp.Query)
				assert.Nil(t, resp.Quote)
			},
		},
		{
			name: "private message gets help",
			body: `{"content":"hello?","channelId":"2002","private":true}`,
			setupSender: func(m *mocks.MockMessageSender) {
				m.EXPECT().SendText(mock.Anything, "2002", app.HelpText).Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				t.Helper()
				var resp InvocationResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, string(app.OutcomeHelp), resp.Outcome)
				assert.Equal(t, app.HelpText, resp.Reply)
			},
		},
		{
			name:           "bot author ignored",
			body:           `{"content":"[]says","channelId":"1001","authorIsBot":true}`,
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				t.Helper()
				var resp InvocationResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, string(app.OutcomeIgnored), resp.Outcome)
			},
		},
		{
			name: "empty cache declines",
			body: `{"content":"[]says","channelId":"1001"}`,
			setupSource: func(m *mocks.MockQuoteSource) {
				m.EXPECT().FetchQuotes(mock.Anything).
					Return(nil, domain.NewMalformedDocumentError("top level is not an object", nil)).Once()
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "missing channel",
			body:           `{"content":"[]says"}`,
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				t.Helper()
				var resp dto.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, dto.ErrorCodeValidation, resp.Error.Code)
				assert.Contains(t, resp.Error.Details, "channelId")
			},
		},
		{
			name:           "snake case channel key is not bound",
			body:           `{"content":"[]says","channel_id":"1001"}`,
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				t.Helper()
				var resp dto.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "this field is required", resp.Error.Details["channelId"])
			},
		},
		{
			name:           "non-numeric channel",
			body:           `{"content":"[]says","channelId":"general"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed body",
			body:           `{"content":`,
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				t.Helper()
				var resp dto.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, dto.ErrorCodeBadRequest, resp.Error.Code)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := mocks.NewMockMessageSender(t)
			if tt.setupSender != nil {
				tt.setupSender(sender)
			}

			handler := NewInvocationHandler(setupQuoteService(t, tt.setupSource, sender))

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/invocations", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			handler.HandleInvocation(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
		})
	}
}
