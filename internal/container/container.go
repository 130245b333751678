package container

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/gigboard/config"
	"github.com/oksasatya/gigboard/internal/application"
	"github.com/oksasatya/gigboard/internal/presence"
	"github.com/oksasatya/gigboard/pkg/helpers"
)

// app-level container to share constructed components across packages.
// The router wires modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	jwtManager  *helpers.JWTManager
	rabbitPub   *helpers.RabbitPublisher
	broker      *presence.Broker
)

func SetConfig(c *config.Config)   { cfg = c }
func GetConfig() *config.Config    { return cfg }
func SetLogger(l *logrus.Logger)   { logger = l }
func GetLogger() *logrus.Logger    { return logger }
func SetPGPool(p *pgxpool.Pool)    { pgPool = p }
func GetPGPool() *pgxpool.Pool     { return pgPool }
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager  { return jwtManager }
func SetBroker(b *presence.Broker) { broker = b }
func GetBroker() *presence.Broker  { return broker }

func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }

// GetEventPublisher is nil when RabbitMQ is not configured, so the ledger skips publishing.
func GetEventPublisher() application.EventPublisher {
	if rabbitPub == nil {
		return nil
	}
	return rabbitPub
}
