package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/gigboard/internal/domain/entity"
	"github.com/oksasatya/gigboard/internal/domain/repository"
)

const selectEngagement = `
	SELECT e.id::text, e.freelancer_id::text, e.client_id::text, f.name, c.name,
	       e.project, e.status, e.created_at, e.review, e.rating
	FROM engagements e
	JOIN users f ON f.id = e.freelancer_id
	JOIN users c ON c.id = e.client_id
`

type EngagementRepository struct {
	pool *pgxpool.Pool
}

func NewEngagementRepository(pool *pgxpool.Pool) *EngagementRepository {
	return &EngagementRepository{pool: pool}
}

func scanEngagement(row pgx.Row) (entity.Engagement, error) {
	var e entity.Engagement
	var status string
	err := row.Scan(&e.ID, &e.FreelancerID, &e.ClientID, &e.FreelancerDisplayName, &e.ClientDisplayName,
		&e.Project, &status, &e.CreatedAt, &e.Review, &e.Rating)
	e.Status = entity.EngagementStatus(status)
	return e, err
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getEngagement(ctx context.Context, q rowQuerier, id string) (*entity.Engagement, error) {
	e, err := scanEngagement(q.QueryRow(ctx, selectEngagement+` WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Create inserts the engagement and registers the hired contact in one transaction.
func (r *EngagementRepository) Create(ctx context.Context, e *entity.Engagement) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO engagements (freelancer_id, client_id, project, status)
			VALUES ($1, $2, $3, $4)
			RETURNING id::text, created_at
		`, e.FreelancerID, e.ClientID, e.Project, string(e.Status)).Scan(&e.ID, &e.CreatedAt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO hired_contacts (client_id, freelancer_id)
			VALUES ($1, $2)
			ON CONFLICT (client_id, freelancer_id) DO NOTHING
		`, e.ClientID, e.FreelancerID)
		return err
	})
}

func (r *EngagementRepository) GetByID(ctx context.Context, id string) (*entity.Engagement, error) {
	return getEngagement(ctx, r.pool, id)
}

// Transition is a conditional update keyed on status = 'Pending'; a concurrent
// writer that loses the race matches zero rows.
func (r *EngagementRepository) Transition(ctx context.Context, id, freelancerID string, status entity.EngagementStatus, completion *repository.Completion) (*entity.Engagement, error) {
	var out *entity.Engagement
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE engagements
			SET status = $3
			WHERE id = $1 AND freelancer_id = $2 AND status = 'Pending'
		`, id, freelancerID, string(status))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return guardOrMissing(ctx, tx, id)
		}

		if status == entity.StatusCompleted && completion != nil {
			w := completion.Work
			if _, err := tx.Exec(ctx, `
				INSERT INTO previous_works (freelancer_id, engagement_id, title, description, client, completed_at)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, w.FreelancerID, id, w.Title, w.Description, w.Client, w.CompletedAt); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				UPDATE users SET points = points + $2, updated_at = now() WHERE id = $1
			`, freelancerID, completion.Points); err != nil {
				return err
			}
		}

		out, err = getEngagement(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyReview writes the review under the write-once guard, then locks the
// freelancer row and recomputes the aggregate in a fresh statement so it sees
// every review committed by concurrent transactions.
func (r *EngagementRepository) ApplyReview(ctx context.Context, id, clientID, review string, rating, points int) (*entity.Engagement, error) {
	var out *entity.Engagement
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var freelancerID string
		err := tx.QueryRow(ctx, `
			UPDATE engagements
			SET review = $3, rating = $4
			WHERE id = $1 AND client_id = $2 AND status = 'Completed' AND review = ''
			RETURNING freelancer_id::text
		`, id, clientID, review, rating).Scan(&freelancerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return guardOrMissing(ctx, tx, id)
			}
			return err
		}

		if _, err := tx.Exec(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, freelancerID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE users u
			SET rating = COALESCE((
			        SELECT ROUND(AVG(e.rating)::numeric, 1)
			        FROM engagements e
			        WHERE e.freelancer_id = u.id AND e.rating > 0
			    ), 0),
			    review_count = (
			        SELECT COUNT(*)
			        FROM engagements e
			        WHERE e.freelancer_id = u.id AND e.review <> ''
			    ),
			    points = points + $2,
			    updated_at = now()
			WHERE u.id = $1
		`, freelancerID, points); err != nil {
			return err
		}

		out, err = getEngagement(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func guardOrMissing(ctx context.Context, tx pgx.Tx, id string) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM engagements WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrGuardFailed
}

func (r *EngagementRepository) ListByFreelancer(ctx context.Context, freelancerID string) ([]entity.Engagement, error) {
	return r.list(ctx, `WHERE e.freelancer_id = $1`, freelancerID)
}

func (r *EngagementRepository) ListByClient(ctx context.Context, clientID string) ([]entity.Engagement, error) {
	return r.list(ctx, `WHERE e.client_id = $1`, clientID)
}

func (r *EngagementRepository) list(ctx context.Context, where string, arg string) ([]entity.Engagement, error) {
	rows, err := r.pool.Query(ctx, selectEngagement+where+` ORDER BY e.created_at DESC, e.id DESC`, arg)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Engagement, error) {
		return scanEngagement(row)
	})
}

var _ repository.EngagementRepository = (*EngagementRepository)(nil)
