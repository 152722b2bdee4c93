package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"anzsco-lookup/internal/database"
	"anzsco-lookup/internal/domain/occupation"

	"github.com/jackc/pgx/v5"
)

var ErrOccupationNotFound = errors.New("occupation not found")

type OccupationRepository interface {
	ReplaceAll(ctx context.Context, records []occupation.Record) error
	ListAll(ctx context.Context) ([]occupation.Record, error)
	FindByCode(ctx context.Context, code string) (occupation.Record, error)
	RecordRefresh(ctx context.Context, log RefreshLog) error
	LastRefresh(ctx context.Context) (RefreshLog, bool, error)
}

// RefreshLog is one row of dataset refresh history.
type RefreshLog struct {
	StartedAt    time.Time         `json:"startedAt"`
	FinishedAt   time.Time         `json:"finishedAt"`
	Primary      string            `json:"primary"`
	UsedFallback bool              `json:"usedFallback"`
	RecordCount  int               `json:"recordCount"`
	AverageScore int               `json:"averageScore"`
	SourceCounts map[string]int    `json:"sourceCounts"`
	Errors       map[string]string `json:"errors,omitempty"`
}

type PostgresOccupationRepository struct {
	db database.DB
}

func NewPostgresOccupationRepository(db database.DB) *PostgresOccupationRepository {
	return &PostgresOccupationRepository{db: db}
}

const upsertOccupation = `
INSERT INTO occupations (
	code, anzsco_code, english_name, chinese_name, category, skill_level,
	assessment_authority, mltssl, stsol, rol, visa_subclasses, data_sources,
	data_quality, last_updated, record, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now())
ON CONFLICT (code) DO UPDATE SET
	anzsco_code = EXCLUDED.anzsco_code,
	english_name = EXCLUDED.english_name,
	chinese_name = EXCLUDED.chinese_name,
	category = EXCLUDED.category,
	skill_level = EXCLUDED.skill_level,
	assessment_authority = EXCLUDED.assessment_authority,
	mltssl = EXCLUDED.mltssl,
	stsol = EXCLUDED.stsol,
	rol = EXCLUDED.rol,
	visa_subclasses = EXCLUDED.visa_subclasses,
	data_sources = EXCLUDED.data_sources,
	data_quality = EXCLUDED.data_quality,
	last_updated = EXCLUDED.last_updated,
	record = EXCLUDED.record,
	updated_at = now()`

// ReplaceAll upserts records keyed by occupation code and removes rows whose
// code is no longer present, in one transaction.
func (r *PostgresOccupationRepository) ReplaceAll(ctx context.Context, records []occupation.Record) error {
	if r == nil || r.db == nil {
		return database.ErrNilDB
	}
	keys := make([]string, 0, len(records))
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		for _, rec := range records {
			key := rec.Key()
			if key == "" {
				continue
			}
			payload, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("encode occupation %s: %w", key, err)
			}
			visas, _ := json.Marshal(nonNil(rec.VisaSubclasses))
			sources, _ := json.Marshal(nonNil(rec.DataSources))

			var updated *time.Time
			if !rec.LastUpdated.IsZero() {
				t := rec.LastUpdated.UTC()
				updated = &t
			}
			if _, err := tx.Exec(ctx, upsertOccupation,
				key, rec.AnzscoCode, rec.EnglishName, rec.ChineseName, string(rec.Category), rec.SkillLevel,
				rec.AssessmentAuthority, rec.MLTSSL, rec.STSOL, rec.ROL, string(visas), string(sources),
				rec.DataQuality, updated, string(payload),
			); err != nil {
				return fmt.Errorf("upsert occupation %s: %w", key, err)
			}
			keys = append(keys, key)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM occupations WHERE NOT (code = ANY($1))`, keys); err != nil {
			return fmt.Errorf("prune occupations: %w", err)
		}
		return nil
	})
}

func (r *PostgresOccupationRepository) ListAll(ctx context.Context) ([]occupation.Record, error) {
	if r == nil || r.db == nil {
		return nil, database.ErrNilDB
	}
	rows, err := r.db.Query(ctx, `SELECT record FROM occupations ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]occupation.Record, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rec occupation.Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode occupation: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresOccupationRepository) FindByCode(ctx context.Context, code string) (occupation.Record, error) {
	if r == nil || r.db == nil {
		return occupation.Record{}, database.ErrNilDB
	}
	var payload []byte
	err := r.db.QueryRow(ctx,
		`SELECT record FROM occupations WHERE code = $1 OR anzsco_code = $1 LIMIT 1`, code,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return occupation.Record{}, ErrOccupationNotFound
		}
		return occupation.Record{}, err
	}
	var rec occupation.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return occupation.Record{}, fmt.Errorf("decode occupation %s: %w", code, err)
	}
	return rec, nil
}

func (r *PostgresOccupationRepository) RecordRefresh(ctx context.Context, log RefreshLog) error {
	if r == nil || r.db == nil {
		return database.ErrNilDB
	}
	counts, _ := json.Marshal(nonNilMap(log.SourceCounts))
	errs, _ := json.Marshal(nonNilMap(log.Errors))
	_, err := r.db.Exec(ctx,
		`INSERT INTO dataset_refreshes
		 (started_at, finished_at, primary_source, used_fallback, record_count, average_score, source_counts, errors)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		log.StartedAt.UTC(), log.FinishedAt.UTC(), log.Primary, log.UsedFallback,
		log.RecordCount, log.AverageScore, string(counts), string(errs),
	)
	return err
}

func (r *PostgresOccupationRepository) LastRefresh(ctx context.Context) (RefreshLog, bool, error) {
	if r == nil || r.db == nil {
		return RefreshLog{}, false, database.ErrNilDB
	}
	var (
		log          RefreshLog
		counts, errs []byte
	)
	err := r.db.QueryRow(ctx,
		`SELECT started_at, finished_at, primary_source, used_fallback, record_count, average_score, source_counts, errors
		 FROM dataset_refreshes ORDER BY finished_at DESC LIMIT 1`,
	).Scan(&log.StartedAt, &log.FinishedAt, &log.Primary, &log.UsedFallback,
		&log.RecordCount, &log.AverageScore, &counts, &errs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RefreshLog{}, false, nil
		}
		return RefreshLog{}, false, err
	}
	_ = json.Unmarshal(counts, &log.SourceCounts)
	_ = json.Unmarshal(errs, &log.Errors)
	return log, true, nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func nonNilMap[V any](in map[string]V) map[string]V {
	if in == nil {
		return map[string]V{}
	}
	return in
}
