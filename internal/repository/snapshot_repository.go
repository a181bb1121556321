package repository

import (
	"context"
	"fmt"
	"time"

	"texhub/internal/domain"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// SnapshotRepository stores the immutable plan snapshots the worker writes
// after each recompute pass. Snapshots are append-only; history views read
// them, nothing updates them.
type SnapshotRepository interface {
	CreateSnapshot(ctx context.Context, snapshot *domain.PlanSnapshot) error
	ListSnapshots(ctx context.Context, planID string, limit int) ([]domain.PlanSnapshot, error)
}

type snapshotRepository struct {
	session *r.Session
	table   string
}

func NewSnapshotRepository(session *r.Session, table string) SnapshotRepository {
	return &snapshotRepository{
		session: session,
		table:   table,
	}
}

func (repo *snapshotRepository) CreateSnapshot(ctx context.Context, snapshot *domain.PlanSnapshot) error {
	snapshot.CreatedAt = time.Now()

	result, err := r.Table(repo.table).Insert(snapshot).RunWrite(repo.session)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	if len(result.GeneratedKeys) > 0 {
		snapshot.ID = result.GeneratedKeys[0]
	}

	return nil
}

func (repo *snapshotRepository) ListSnapshots(ctx context.Context, planID string, limit int) ([]domain.PlanSnapshot, error) {
	cursor, err := r.Table(repo.table).
		Filter(r.Row.Field("plan_id").Eq(planID)).
		OrderBy(r.Desc("created_at")).
		Limit(limit).
		Run(repo.session)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer cursor.Close()

	var snapshots []domain.PlanSnapshot
	if err := cursor.All(&snapshots); err != nil {
		return nil, fmt.Errorf("failed to decode snapshots: %w", err)
	}

	return snapshots, nil
}
