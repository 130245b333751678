package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/gigboard/internal/application"
	"github.com/oksasatya/gigboard/internal/container"
	"github.com/oksasatya/gigboard/internal/domain/repository"
	"github.com/oksasatya/gigboard/internal/infrastructure/cache"
	pginfra "github.com/oksasatya/gigboard/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/gigboard/internal/interface/http"
	"github.com/oksasatya/gigboard/internal/interface/middleware"
	"github.com/oksasatya/gigboard/internal/router/modules"
)

type Services struct {
	Ledger   *application.EngagementService
	Messages *application.MessageService
	Threads  *application.ThreadIndex
}

// BuildServices wires the application services over the given repositories.
func BuildServices(users repository.UserRepository, engagements repository.EngagementRepository, messages repository.MessageRepository) Services {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	threads := application.NewThreadIndex(users, messages, logger)
	return Services{
		Ledger:   application.NewEngagementService(users, engagements, container.GetEventPublisher(), logger),
		Messages: application.NewMessageService(users, messages, threads, container.GetBroker(), logger, cfg.HistoryDefaultLimit, cfg.HistoryMaxLimit),
		Threads:  threads,
	}
}

func protectedChain() []gin.HandlerFunc {
	cfg := container.GetConfig()
	rdb := container.GetRedis()

	sessions := rdb
	if !cfg.SessionCheckEnabled {
		sessions = nil
	}
	return []gin.HandlerFunc{
		middleware.Auth(sessions, container.GetJWT()),
		middleware.RateLimit(rdb, 600, time.Minute, middleware.KeyByUserID(), nil),
		middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserAndRoute(), nil),
	}
}

// InitModules initializes all application modules and registers them with the router registry.
// Call once during startup, after the container is populated.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	users := cache.NewUserRepository(pginfra.NewUserRepository(pool), container.GetRedis(), cfg.IdentityCacheTTL, logger)
	svc := BuildServices(users, pginfra.NewEngagementRepository(pool), pginfra.NewMessageRepository(pool))

	protect := protectedChain()
	r.Add(modules.NewEngagementModule(handlers.NewEngagementHandler(svc.Ledger, logger), protect...))
	r.Add(modules.NewChatModule(handlers.NewChatHandler(svc.Messages, svc.Threads, container.GetBroker(), cfg.CORSOrigins(), logger), protect...))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), nil)))
	}
}
