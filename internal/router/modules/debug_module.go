package modules

import (
	"expvar"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/gigboard/internal/interface/middleware"
)

// DebugModule serves expvar counters (presence deliveries, drops, live sessions)
// to private-network callers only.
type DebugModule struct {
	Middlewares []gin.HandlerFunc
}

func NewDebugModule(mw ...gin.HandlerFunc) *DebugModule { return &DebugModule{Middlewares: mw} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	chain := append([]gin.HandlerFunc{middleware.Only(middleware.AllowPrivateIP())}, m.Middlewares...)
	chain = append(chain, gin.WrapH(expvar.Handler()))
	rg.GET("/debug/vars", chain...)
}
