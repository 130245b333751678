package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/gigboard/internal/interface/http"
)

// EngagementModule exposes the engagement ledger.
// All routes require an authenticated caller; protect carries the auth and limiter chain.
type EngagementModule struct {
	Handler *handlers.EngagementHandler
	Protect []gin.HandlerFunc
}

func NewEngagementModule(h *handlers.EngagementHandler, protect ...gin.HandlerFunc) *EngagementModule {
	return &EngagementModule{Handler: h, Protect: protect}
}

func (m *EngagementModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/", m.Protect...)
	{
		auth.POST("/engagements", m.Handler.Hire)
		auth.GET("/engagements", m.Handler.List)
		auth.GET("/engagements/:id", m.Handler.Get)
		auth.PATCH("/engagements/:id/status", m.Handler.UpdateStatus)
		auth.PATCH("/engagements/:id/review", m.Handler.SubmitReview)
		auth.GET("/contacts", m.Handler.Contacts)
		auth.GET("/freelancers/:id/reputation", m.Handler.Reputation)
	}
}
