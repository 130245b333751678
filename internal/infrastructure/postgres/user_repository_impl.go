package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/gigboard/internal/domain/entity"
	"github.com/oksasatya/gigboard/internal/domain/repository"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Resolve(ctx context.Context, userID string) (*entity.Identity, error) {
	id := &entity.Identity{}
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, email
		FROM users
		WHERE id = $1
	`, userID).Scan(&id.ID, &id.DisplayName, &id.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return id, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u := &entity.User{}
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, email, points, rating::float8, review_count, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.DisplayName, &u.Email, &u.Points, &u.Rating, &u.ReviewCount, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) HiredContacts(ctx context.Context, clientID string) ([]entity.Identity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id::text, u.name, u.email
		FROM hired_contacts hc
		JOIN users u ON u.id = hc.freelancer_id
		WHERE hc.client_id = $1
		ORDER BY hc.created_at
	`, clientID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Identity, error) {
		var id entity.Identity
		err := row.Scan(&id.ID, &id.DisplayName, &id.Email)
		return id, err
	})
}

func (r *UserRepository) PreviousWorks(ctx context.Context, freelancerID string) ([]entity.PreviousWork, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, freelancer_id::text, engagement_id::text, title, description, client, completed_at
		FROM previous_works
		WHERE freelancer_id = $1
		ORDER BY completed_at DESC
	`, freelancerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.PreviousWork, error) {
		var w entity.PreviousWork
		err := row.Scan(&w.ID, &w.FreelancerID, &w.EngagementID, &w.Title, &w.Description, &w.Client, &w.CompletedAt)
		return w, err
	})
}

var _ repository.UserRepository = (*UserRepository)(nil)
