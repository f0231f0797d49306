package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/akeil/stashd/internal/database"
)

// StoreMaintenanceJob keeps the store healthy: it verifies integrity
// with a quick check, watches the WAL size and checkpoints when the
// log grows large.
type StoreMaintenanceJob struct {
	log zerolog.Logger
	db  *database.DB
}

// NewStoreMaintenanceJob creates a new store maintenance job.
func NewStoreMaintenanceJob(db *database.DB, log zerolog.Logger) *StoreMaintenanceJob {
	return &StoreMaintenanceJob{
		log: log.With().Str("job", "store_maintenance").Logger(),
		db:  db,
	}
}

// Name returns the job name
func (j *StoreMaintenanceJob) Name() string {
	return "store_maintenance"
}

// Run executes the store maintenance job
func (j *StoreMaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := j.db.QuickCheck(ctx); err != nil {
		j.log.Error().Err(err).Msg("Store integrity check failed")
		return err
	}

	// PRAGMA wal_checkpoint returns: busy, log, checkpointed
	var busy, frames, checkpointed int
	err := j.db.QueryRowContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed)
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to check WAL checkpoint")
		return nil
	}

	if frames > 1000 {
		j.log.Warn().
			Int("wal_frames", frames).
			Int("checkpointed", checkpointed).
			Msg("WAL file is large, forcing checkpoint")
		if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Msg("WAL checkpoint failed")
		}
	} else {
		j.log.Debug().
			Int("wal_frames", frames).
			Msg("WAL checkpoint status OK")
	}

	return nil
}
