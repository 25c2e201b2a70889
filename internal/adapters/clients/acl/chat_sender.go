package acl

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/jsamuelsen/quote-cache-service/internal/adapters/clients"
	"github.com/jsamuelsen/quote-cache-service/internal/domain"
	"github.com/jsamuelsen/quote-cache-service/internal/platform/logging"
)

const (
	chatGatewayName = "chat-gateway"

	// EmbedColor is the accent colour of quote embeds.
	EmbedColor = 0x2196F3

	// FooterIconURL is the avatar shown next to the embed footer.
	FooterIconURL = "https://avatars1.githubusercontent.com/u/16021050?s=460&v=4"
)

// createMessageRequest is the chat API's create-message body.
type createMessageRequest struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Embed is the rich message body used for quotes.
type Embed struct {
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

// EmbedFooter is the attribution line under a quote.
type EmbedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

// createdMessage is the part of the create-message reply we keep.
type createdMessage struct {
	ID string `json:"id"`
}

// ChatSender implements ports.MessageSender against the chat REST API.
type ChatSender struct {
	BaseAdapter

	logger *slog.Logger
}

// NewChatSender creates a chat sender. The client's BaseURL is the API root
// and its AuthFunc should be BotAuthorization.
// Panics if client is nil.
func NewChatSender(client *clients.Client, logger *slog.Logger) *ChatSender {
	if client == nil {
		panic("ChatSender: client is required")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ChatSender{
		BaseAdapter: NewBaseAdapter(client, chatGatewayName),
		logger:      logger,
	}
}

// BotAuthorization returns an AuthFunc that sets the bot token header.
func BotAuthorization(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bot "+token)
	}
}

// SendQuote posts msg to the channel as an embed.
// Implements ports.MessageSender.
func (s *ChatSender) SendQuote(ctx context.Context, channelID string, msg domain.QuoteMessage) error {
	return s.send(ctx, channelID, createMessageRequest{Embeds: []Embed{RenderEmbed(msg)}}, "send quote")
}

// SendText posts a plain message to the channel.
// Implements ports.MessageSender.
func (s *ChatSender) SendText(ctx context.Context, channelID, text string) error {
	if text == "" {
		return domain.NewValidationError("content", "is required")
	}

	return s.send(ctx, channelID, createMessageRequest{Content: text}, "send text")
}

func (s *ChatSender) send(ctx context.Context, channelID string, payload createMessageRequest, operation string) error {
	if channelID == "" {
		return domain.NewValidationError("channelId", "is required")
	}

	path := "/channels/" + url.PathEscape(channelID) + "/messages"
	s.logger.Log(ctx, logging.LevelTrace, "starting request",
		slog.String("path", path),
		slog.String("operation", operation))

	body, err := s.PostJSON(ctx, path, payload, operation, channelID)
	if err != nil {
		return err
	}

	// The message is already posted; an odd reply body only costs the ID.
	created, err := DecodeResponse[createdMessage](body)
	if err != nil {
		s.logger.WarnContext(ctx, "unreadable create-message reply",
			slog.String("path", path),
			slog.Any("error", err))

		return nil
	}

	s.logger.Log(ctx, logging.LevelTrace, "request complete",
		slog.String("path", path),
		slog.String("message_id", created.ID))

	return nil
}

// RenderEmbed builds the display payload for a quote.
func RenderEmbed(msg domain.QuoteMessage) Embed {
	return Embed{
		Description: msg.Text,
		Color:       EmbedColor,
		Footer: &EmbedFooter{
			Text:    fmt.Sprintf("Arraying, %s %s", msg.MonthName, msg.Year),
			IconURL: FooterIconURL,
		},
	}
}

