package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	availabilityerrors "masterbook/internal/availability/errors"
	"masterbook/pkg/model"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Get(ctx context.Context, masterID string) (*model.Availability, error) {
	const q = `
		SELECT master_id, slot_minutes, week_template, exceptions
		FROM availability
		WHERE master_id = $1`

	var (
		av              model.Availability
		weekRaw, excRaw []byte
	)
	err := r.pool.QueryRow(ctx, q, masterID).Scan(&av.MasterID, &av.SlotMinutes, &weekRaw, &excRaw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, availabilityerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query availability: %w", err)
	}

	if err := json.Unmarshal(weekRaw, &av.WeekTemplate); err != nil {
		return nil, fmt.Errorf("decode week template: %w", err)
	}
	if err := json.Unmarshal(excRaw, &av.Exceptions); err != nil {
		return nil, fmt.Errorf("decode exceptions: %w", err)
	}
	return &av, nil
}

func (r *postgresRepository) Put(ctx context.Context, av *model.Availability) error {
	weekRaw, err := json.Marshal(av.WeekTemplate)
	if err != nil {
		return fmt.Errorf("encode week template: %w", err)
	}
	excRaw, err := json.Marshal(av.Exceptions)
	if err != nil {
		return fmt.Errorf("encode exceptions: %w", err)
	}

	const q = `
		INSERT INTO availability (master_id, slot_minutes, week_template, exceptions)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (master_id) DO UPDATE
		SET slot_minutes = EXCLUDED.slot_minutes,
		    week_template = EXCLUDED.week_template,
		    exceptions = EXCLUDED.exceptions`

	if _, err := r.pool.Exec(ctx, q, av.MasterID, av.SlotMinutes, weekRaw, excRaw); err != nil {
		return fmt.Errorf("upsert availability: %w", err)
	}
	return nil
}
