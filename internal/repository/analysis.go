package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"oneiro/internal/models"
	"oneiro/internal/store"
)

// AnalysisRepository defines persistence operations for dream analyses.
// Analyses are append-only: re-running an interpretation inserts a new
// row, and reads always take the most recent one.
type AnalysisRepository interface {
	Create(ctx context.Context, analysis *models.Analysis) error
	GetLatestByDream(ctx context.Context, dreamID int64) (*models.Analysis, error)
	Count(ctx context.Context) (int64, error)
}

type analysisRepository struct {
	db store.Store
}

// NewAnalysisRepository returns a new AnalysisRepository implementation.
func NewAnalysisRepository(db store.Store) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Create(ctx context.Context, analysis *models.Analysis) error {
	archetypes, err := json.Marshal(analysis.Archetypes)
	if err != nil {
		return models.NewInternalError(err)
	}
	symbols, err := json.Marshal(analysis.Symbols)
	if err != nil {
		return models.NewInternalError(err)
	}
	res, err := r.db.Execute(ctx,
		"INSERT INTO analyses (dream_id, analysis_text, archetypes, symbols, psychological_state) VALUES (?, ?, ?, ?, ?)",
		analysis.DreamID, analysis.Interpretation, string(archetypes), string(symbols),
		analysis.PsychologicalState)
	if err != nil {
		return models.NewInternalError(err)
	}
	analysis.ID = res.InsertID
	return nil
}

func (r *analysisRepository) GetLatestByDream(ctx context.Context, dreamID int64) (*models.Analysis, error) {
	row, err := r.db.FetchOne(ctx,
		"SELECT id, dream_id, analysis_text, archetypes, symbols, psychological_state, created_at FROM analyses WHERE dream_id = ? ORDER BY created_at DESC, id DESC LIMIT 1",
		dreamID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if row == nil {
		return nil, models.NewNotFoundError("Analysis")
	}
	a := &models.Analysis{
		ID:                 row.Int64("id"),
		DreamID:            row.Int64("dream_id"),
		Interpretation:     row.String("analysis_text"),
		PsychologicalState: row.String("psychological_state"),
		CreatedAt:          row.Time("created_at"),
	}
	if raw := row.String("archetypes"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &a.Archetypes); err != nil {
			return nil, models.NewInternalError(fmt.Errorf("decode archetypes for analysis %d: %w", a.ID, err))
		}
	}
	if raw := row.String("symbols"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &a.Symbols); err != nil {
			return nil, models.NewInternalError(fmt.Errorf("decode symbols for analysis %d: %w", a.ID, err))
		}
	}
	if a.Archetypes == nil {
		a.Archetypes = []string{}
	}
	if a.Symbols == nil {
		a.Symbols = map[string]string{}
	}
	return a, nil
}

func (r *analysisRepository) Count(ctx context.Context) (int64, error) {
	row, err := r.db.FetchOne(ctx, "SELECT COUNT(id) AS total_analyses FROM analyses")
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return row.Int64("total_analyses"), nil
}
