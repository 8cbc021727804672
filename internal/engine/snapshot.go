package engine

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/openvenue/settlement/pkg/db"
	"github.com/openvenue/settlement/pkg/db/models"
)

// SnapshotRepository persists full engine states.
type SnapshotRepository struct {
	db *db.Client
}

func NewSnapshotRepository(client *db.Client) *SnapshotRepository {
	return &SnapshotRepository{db: client}
}

func (r *SnapshotRepository) Save(ctx context.Context, state json.RawMessage, takenAt time.Time) error {
	row := models.EngineSnapshot{State: state, TakenAt: takenAt}
	return r.db.DB().WithContext(ctx).Create(&row).Error
}

// Latest returns the newest snapshot, or nil when none exists yet.
func (r *SnapshotRepository) Latest(ctx context.Context) (*models.EngineSnapshot, error) {
	var row models.EngineSnapshot
	err := r.db.DB().WithContext(ctx).Order("id DESC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Snapshot serializes the current state through the repository.
func (e *Engine) Snapshot(ctx context.Context, repo *SnapshotRepository) error {
	e.mu.RLock()
	raw, err := json.Marshal(e.state)
	takenAt := e.clock()
	e.mu.RUnlock()
	if err != nil {
		return err
	}
	return repo.Save(ctx, raw, takenAt)
}

// Restore replaces the engine state with the newest snapshot, if any. Meant
// for boot, before the engine serves traffic.
func (e *Engine) Restore(ctx context.Context, repo *SnapshotRepository) error {
	row, err := repo.Latest(ctx)
	if err != nil {
		return err
	}
	if row == nil {
		return nil
	}
	var state State
	if err := json.Unmarshal(row.State, &state); err != nil {
		return err
	}
	e.mu.Lock()
	e.state = &state
	e.mu.Unlock()
	return nil
}

// RunSnapshots writes a snapshot every interval until the context ends.
func (e *Engine) RunSnapshots(ctx context.Context, repo *SnapshotRepository, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.Snapshot(ctx, repo); err != nil && e.logg != nil {
				e.logg.Error(ctx, "writing engine snapshot", err)
			}
		}
	}
}
