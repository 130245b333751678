package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/gigboard/internal/application"
	"github.com/oksasatya/gigboard/internal/presence"
	"github.com/oksasatya/gigboard/pkg/response"
	"github.com/oksasatya/gigboard/pkg/validation"
)

type ChatHandler struct {
	Messages       *application.MessageService
	ThreadIndex    *application.ThreadIndex
	Broker         *presence.Broker
	AllowedOrigins []string
	Logger         *logrus.Logger
}

func NewChatHandler(messages *application.MessageService, threads *application.ThreadIndex, broker *presence.Broker, allowedOrigins []string, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{Messages: messages, ThreadIndex: threads, Broker: broker, AllowedOrigins: allowedOrigins, Logger: logger}
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiver_id" binding:"required,uuid"`
	Content    string `json:"content" binding:"required,notblank,max=5000"`
}

func (h *ChatHandler) Send(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, "invalid payload", validation.ToDetails(err))
		return
	}
	m, err := h.Messages.Send(c.Request.Context(), callerID(c), req.ReceiverID, req.Content)
	if err != nil {
		h.fail(c, err, "send message")
		return
	}
	response.Success(c, http.StatusCreated, m, "message sent", nil)
}

// History serves GET /chat/messages/:userId?page=&limit=&before=
func (h *ChatHandler) History(c *gin.Context) {
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	res, err := h.Messages.History(c.Request.Context(), callerID(c), c.Param("userId"), application.PageRequest{
		Page:   page,
		Limit:  limit,
		Before: c.Query("before"),
	})
	if err != nil {
		h.fail(c, err, "message history")
		return
	}
	response.Success(c, http.StatusOK, res, "ok", nil)
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	n, err := h.Messages.MarkRead(c.Request.Context(), callerID(c), c.Param("userId"))
	if err != nil {
		h.fail(c, err, "mark read")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": n}, "messages marked as read", nil)
}

func (h *ChatHandler) Threads(c *gin.Context) {
	threads, err := h.ThreadIndex.ThreadsFor(c.Request.Context(), callerID(c))
	if err != nil {
		h.fail(c, err, "threads")
		return
	}
	response.Success(c, http.StatusOK, threads, "ok", nil)
}

func (h *ChatHandler) UnreadPeers(c *gin.Context) {
	n, err := h.ThreadIndex.UnreadPeerCount(c.Request.Context(), callerID(c))
	if err != nil {
		h.fail(c, err, "unread peers")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"count": n}, "ok", nil)
}

// Presence upgrades to a websocket joined to the caller's room.
func (h *ChatHandler) Presence(c *gin.Context) {
	h.Broker.Server(callerID(c), h.AllowedOrigins).ServeHTTP(c.Writer, c.Request)
}

func (h *ChatHandler) fail(c *gin.Context, err error, op string) {
	logFailure(h.Logger, c, err, op)
	response.FromError(c, err)
}

// queryInt parses an optional integer query parameter; it writes a 400 and returns false on garbage.
func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		response.Invalid(c, "invalid query", map[string]string{key: "must be an integer"})
		return 0, false
	}
	return v, true
}
