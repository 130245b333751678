package repository

import (
	"context"

	"github.com/oksasatya/gigboard/internal/domain/entity"
)

//go:generate go run go.uber.org/mock/mockgen -destination=../../mocks/mock_identity_resolver.go -package=mocks github.com/oksasatya/gigboard/internal/domain/repository IdentityResolver

// IdentityResolver resolves a user id to its identity. Returns ErrNotFound when the id is unknown.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID string) (*entity.Identity, error)
}

// UserRepository defines the user-side reads the ledger needs.
// Profile CRUD lives in another service.
type UserRepository interface {
	IdentityResolver
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// HiredContacts lists the distinct freelancers a client has hired.
	HiredContacts(ctx context.Context, clientID string) ([]entity.Identity, error)
	PreviousWorks(ctx context.Context, freelancerID string) ([]entity.PreviousWork, error)
}
