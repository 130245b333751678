package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/gigboard/internal/interface/http"
)

// ChatModule exposes messaging, threads and the presence websocket.
type ChatModule struct {
	Handler *handlers.ChatHandler
	Protect []gin.HandlerFunc
}

func NewChatModule(h *handlers.ChatHandler, protect ...gin.HandlerFunc) *ChatModule {
	return &ChatModule{Handler: h, Protect: protect}
}

func (m *ChatModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/", m.Protect...)
	{
		auth.POST("/chat/messages", m.Handler.Send)
		auth.GET("/chat/messages/:userId", m.Handler.History)
		auth.POST("/chat/mark-read/:userId", m.Handler.MarkRead)
		auth.GET("/chat/threads", m.Handler.Threads)
		auth.GET("/chat/unread-peers", m.Handler.UnreadPeers)
		auth.GET("/ws", m.Handler.Presence)
	}
}
