package source

import (
	"context"
	_ "embed"
	"encoding/json"
	"time"

	"anzsco-lookup/internal/domain/occupation"

	"go.uber.org/zap"
)

//go:embed static/occupations.json
var staticDataset []byte

// SnapshotStore persists the last good merged dataset on local disk.
type SnapshotStore interface {
	Load(ctx context.Context) ([]occupation.Record, time.Time, error)
}

// LocalBackup serves the local snapshot, or the embedded static dataset when
// no snapshot exists.
type LocalBackup struct {
	store  SnapshotStore
	tables occupation.Tables
	logger *zap.Logger
}

func NewLocalBackup(store SnapshotStore, tables occupation.Tables, logger *zap.Logger) *LocalBackup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalBackup{store: store, tables: tables, logger: logger}
}

func (l *LocalBackup) Name() string { return occupation.SourceLocalBackup }

func (l *LocalBackup) Fetch(ctx context.Context) ([]occupation.Record, error) {
	if l == nil {
		return StaticDataset(occupation.DefaultTables()), nil
	}
	if l.store != nil {
		records, savedAt, err := l.store.Load(ctx)
		switch {
		case err != nil:
			l.logger.Warn("[LocalBackup] snapshot unavailable", zap.Error(err))
		case len(records) > 0:
			l.logger.Info("[LocalBackup] using snapshot",
				zap.Int("records", len(records)),
				zap.Time("saved_at", savedAt),
			)
			return records, nil
		}
	}
	return StaticDataset(l.tables), nil
}

// StaticDataset returns the embedded reference dataset.
func StaticDataset(tables occupation.Tables) []occupation.Record {
	var raws []occupation.Raw
	if err := json.Unmarshal(staticDataset, &raws); err != nil {
		return []occupation.Record{}
	}
	return mapAll(occupation.MustAdapter(occupation.FormatStatic, tables), raws)
}
