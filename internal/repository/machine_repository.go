package repository

import (
	"context"
	"errors"
	"fmt"

	"texhub/internal/domain"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

type MachineRepository interface {
	CreateMachine(ctx context.Context, machine *domain.MachineSchedule) error
	GetMachine(ctx context.Context, id string) (*domain.MachineSchedule, error)
	UpdateMachine(ctx context.Context, id string, updates map[string]any) error
	ListMachines(ctx context.Context) ([]domain.MachineSchedule, error)
	EnsureDefaults(ctx context.Context) error
}

type machineRepository struct {
	session *r.Session
	table   string
}

func NewMachineRepository(session *r.Session, table string) MachineRepository {
	return &machineRepository{
		session: session,
		table:   table,
	}
}

func (repo *machineRepository) CreateMachine(ctx context.Context, machine *domain.MachineSchedule) error {
	result, err := r.Table(repo.table).Insert(machine).RunWrite(repo.session)
	if err != nil {
		return fmt.Errorf("failed to create machine: %w", err)
	}

	if len(result.GeneratedKeys) > 0 {
		machine.ID = result.GeneratedKeys[0]
	}

	return nil
}

func (repo *machineRepository) GetMachine(ctx context.Context, id string) (*domain.MachineSchedule, error) {
	cursor, err := r.Table(repo.table).Get(id).Run(repo.session)
	if err != nil {
		return nil, fmt.Errorf("failed to get machine: %w", err)
	}
	defer cursor.Close()

	if cursor.IsNil() {
		return nil, errors.New("machine not found")
	}

	var machine domain.MachineSchedule
	if err := cursor.One(&machine); err != nil {
		return nil, fmt.Errorf("failed to decode machine: %w", err)
	}

	return &machine, nil
}

func (repo *machineRepository) UpdateMachine(ctx context.Context, id string, updates map[string]any) error {
	_, err := r.Table(repo.table).Get(id).Update(updates).RunWrite(repo.session)
	if err != nil {
		return fmt.Errorf("failed to update machine: %w", err)
	}

	return nil
}

func (repo *machineRepository) ListMachines(ctx context.Context) ([]domain.MachineSchedule, error) {
	cursor, err := r.Table(repo.table).
		OrderBy("machine_no").
		Run(repo.session)
	if err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	defer cursor.Close()

	var machines []domain.MachineSchedule
	if err := cursor.All(&machines); err != nil {
		return nil, fmt.Errorf("failed to decode machines: %w", err)
	}

	return machines, nil
}

// EnsureDefaults seeds the standard machine park when the table is empty.
func (repo *machineRepository) EnsureDefaults(ctx context.Context) error {
	cursor, err := r.Table(repo.table).Count().Run(repo.session)
	if err != nil {
		return fmt.Errorf("failed to count machines: %w", err)
	}
	defer cursor.Close()

	var count int
	if err := cursor.One(&count); err != nil {
		return fmt.Errorf("failed to read machine count: %w", err)
	}

	if count > 0 {
		return nil
	}

	machines := domain.DefaultMachines()
	if _, err := r.Table(repo.table).Insert(machines).RunWrite(repo.session); err != nil {
		return fmt.Errorf("failed to seed machines: %w", err)
	}

	return nil
}
