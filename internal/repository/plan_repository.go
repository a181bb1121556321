package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"texhub/internal/domain"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

type PlanRepository interface {
	CreatePlan(ctx context.Context, plan *domain.DyeingPlan) error
	GetPlan(ctx context.Context, id string) (*domain.DyeingPlan, error)
	UpdatePlan(ctx context.Context, id string, updates map[string]any) error
	ReplacePlan(ctx context.Context, plan *domain.DyeingPlan) error
	ListPlans(ctx context.Context, limit int) ([]domain.DyeingPlan, error)
}

type planRepository struct {
	session *r.Session
	table   string
}

func NewPlanRepository(session *r.Session, table string) PlanRepository {
	return &planRepository{
		session: session,
		table:   table,
	}
}

func (repo *planRepository) CreatePlan(ctx context.Context, plan *domain.DyeingPlan) error {
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = time.Now()

	result, err := r.Table(repo.table).Insert(plan).RunWrite(repo.session)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	if len(result.GeneratedKeys) > 0 {
		plan.ID = result.GeneratedKeys[0]
	}

	return nil
}

func (repo *planRepository) GetPlan(ctx context.Context, id string) (*domain.DyeingPlan, error) {
	cursor, err := r.Table(repo.table).Get(id).Run(repo.session)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	defer cursor.Close()

	if cursor.IsNil() {
		return nil, errors.New("plan not found")
	}

	var plan domain.DyeingPlan
	if err := cursor.One(&plan); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}

	return &plan, nil
}

func (repo *planRepository) UpdatePlan(ctx context.Context, id string, updates map[string]any) error {
	updates["updated_at"] = time.Now()

	_, err := r.Table(repo.table).Get(id).Update(updates).RunWrite(repo.session)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	return nil
}

// ReplacePlan writes a full recomputed snapshot over the stored document.
func (repo *planRepository) ReplacePlan(ctx context.Context, plan *domain.DyeingPlan) error {
	plan.UpdatedAt = time.Now()

	_, err := r.Table(repo.table).Get(plan.ID).Replace(plan).RunWrite(repo.session)
	if err != nil {
		return fmt.Errorf("failed to replace plan: %w", err)
	}

	return nil
}

func (repo *planRepository) ListPlans(ctx context.Context, limit int) ([]domain.DyeingPlan, error) {
	cursor, err := r.Table(repo.table).
		OrderBy(r.Desc("created_at")).
		Limit(limit).
		Run(repo.session)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer cursor.Close()

	var plans []domain.DyeingPlan
	if err := cursor.All(&plans); err != nil {
		return nil, fmt.Errorf("failed to decode plans: %w", err)
	}

	return plans, nil
}
