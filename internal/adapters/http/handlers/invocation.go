package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-cache-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-cache-service/internal/app"
)

// InvocationHandler accepts chat message events from the gateway.
type InvocationHandler struct {
	service *app.QuoteService
}

// NewInvocationHandler creates a new invocation handler.
func NewInvocationHandler(service *app.QuoteService) *InvocationHandler {
	return &InvocationHandler{
		service: service,
	}
}

// InvocationRequest is a chat message event.
type InvocationRequest struct {
	Content     string `json:"content" validate:"max=4000"`
	ChannelID   string `json:"channelId" validate:"required,snowflake"`
	AuthorIsBot bool   `json:"authorIsBot"`
	Private     bool   `json:"private"`
}

// QuoteMessageResponse is the rendered display payload of a quote.
type QuoteMessageResponse struct {
	Text      string `json:"text"`
	MonthName string `json:"monthName"`
	Year      string `json:"year"`
}

// InvocationResponse reports what the bot did with the message.
type InvocationResponse struct {
	Outcome string                `json:"outcome"`
	Query   string                `json:"query,omitempty"`
	Quote   *QuoteMessageResponse `json:"quote,omitempty"`
	Reply   string                `json:"reply,omitempty"`
}

func toInvocationResponse(r app.InvocationResult) *InvocationResponse {
	resp := &InvocationResponse{
		Outcome: string(r.Outcome),
		Query:   r.Query,
		Reply:   r.Reply,
	}

	if r.Quote != nil {
		resp.Quote = &QuoteMessageResponse{
			Text:      r.Quote.Text,
			MonthName: r.Quote.MonthName,
			Year:      r.Quote.Year,
		}
	}

	return resp
}

// HandleInvocation handles POST /api/v1/invocations
//
// @Summary Deliver a chat message event
// @Tags invocations
// @Accept json
// @Produce json
// @Param request body InvocationRequest true "Message event"
// @Success 200 {object} InvocationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/invocations [post]
func (h *InvocationHandler) HandleInvocation(c *gin.Context) {
	var req InvocationRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	result, err := h.service.HandleInvocation(c.Request.Context(), app.Invocation{
		Content:     req.Content,
		ChannelID:   req.ChannelID,
		AuthorIsBot: req.AuthorIsBot,
		Private:     req.Private,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInvocationResponse(result))
}

// RegisterInvocationRoutes registers invocation routes on the given router group.
func (h *InvocationHandler) RegisterInvocationRoutes(rg *gin.RouterGroup) {
	rg.POST("/invocations", h.HandleInvocation)
}
