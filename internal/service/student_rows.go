package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/aula-go-api/internal/cache"
	"github.com/noah-isme/aula-go-api/internal/models"
	"github.com/noah-isme/aula-go-api/internal/repository"
)

// studentRows is the cache-aside reader of raw student rows shared by the
// services that need the roster. Display records are never cached so age is
// always computed against the current clock.
type studentRows struct {
	repo   repository.StudentRepository
	cache  cache.Store
	ttl    time.Duration
	logger zerolog.Logger
}

func newStudentRows(repo repository.StudentRepository, store cache.Store, ttl time.Duration, logger zerolog.Logger) *studentRows {
	if store == nil {
		store = cache.Nop{}
	}
	return &studentRows{repo: repo, cache: store, ttl: ttl, logger: logger}
}

// roster returns every student ordered by name. Searches bypass the cache.
func (r *studentRows) roster(ctx context.Context, search string) ([]models.Student, error) {
	if search != "" {
		return r.repo.List(ctx, search)
	}

	var rows []models.Student
	found, err := r.cache.Get(ctx, cache.StudentRosterKey, &rows)
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to read roster cache")
	}
	if found {
		return rows, nil
	}

	rows, err = r.repo.List(ctx, "")
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cache.StudentRosterKey, rows, r.ttl); err != nil {
		r.logger.Warn().Err(err).Msg("failed to store roster cache")
	}
	return rows, nil
}

// row returns one student with its course preloaded.
func (r *studentRows) row(ctx context.Context, id string) (models.Student, error) {
	var row models.Student
	key := cache.StudentKey(id)
	found, err := r.cache.Get(ctx, key, &row)
	if err != nil {
		r.logger.Warn().Err(err).Str("student_id", id).Msg("failed to read student cache")
	}
	if found {
		return row, nil
	}

	row, err = r.fresh(ctx, id)
	if err != nil {
		return models.Student{}, err
	}

	if err := r.cache.Set(ctx, key, row, r.ttl); err != nil {
		r.logger.Warn().Err(err).Str("student_id", id).Msg("failed to store student cache")
	}
	return row, nil
}

// fresh reads the row from the database, skipping the cache. Writers use it.
func (r *studentRows) fresh(ctx context.Context, id string) (models.Student, error) {
	row, err := r.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}
	return row, nil
}

// invalidate drops the roster and the given students after a write.
func (r *studentRows) invalidate(ctx context.Context, ids ...string) {
	keys := make([]string, 0, len(ids)+1)
	keys = append(keys, cache.StudentRosterKey)
	for _, id := range ids {
		if id != "" {
			keys = append(keys, cache.StudentKey(id))
		}
	}

	if err := r.cache.Invalidate(ctx, keys...); err != nil {
		r.logger.Warn().Err(err).Strs("keys", keys).Msg("failed to invalidate student cache")
	}
}
