package projects

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
	"github.com/Kwakusharp7/fleet-managment/pkg/redis"
)

const cacheKind = "project"

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(kind, id string) string
}

// cachedRepository serves FindByCode from Redis and drops the entry on every write.
// Cache failures degrade to the database.
type cachedRepository struct {
	Repository
	cache cacheStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewCachedRepository decorates repo with a read-through project cache.
func NewCachedRepository(repo Repository, cache cacheStore, ttl time.Duration, logg *logger.Logger) Repository {
	if cache == nil || ttl <= 0 {
		return repo
	}
	return &cachedRepository{Repository: repo, cache: cache, ttl: ttl, logg: logg}
}

func (r *cachedRepository) FindByCode(ctx context.Context, code string) (*models.Project, error) {
	key := r.cache.CacheKey(cacheKind, code)
	raw, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		var project models.Project
		if jsonErr := json.Unmarshal([]byte(raw), &project); jsonErr == nil {
			return &project, nil
		}
		r.warn(ctx, "discarding undecodable cached project", code, nil)
	case !errors.Is(err, redis.Nil):
		r.warn(ctx, "project cache read failed", code, err)
	}

	project, err := r.Repository.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if payload, jsonErr := json.Marshal(project); jsonErr == nil {
		if setErr := r.cache.Set(ctx, key, string(payload), r.ttl); setErr != nil {
			r.warn(ctx, "project cache write failed", code, setErr)
		}
	}
	return project, nil
}

func (r *cachedRepository) Create(ctx context.Context, project *models.Project) error {
	if err := r.Repository.Create(ctx, project); err != nil {
		return err
	}
	r.evict(ctx, project.Code)
	return nil
}

func (r *cachedRepository) UpdateStatus(ctx context.Context, code string, status enums.ProjectStatus) error {
	if err := r.Repository.UpdateStatus(ctx, code, status); err != nil {
		return err
	}
	r.evict(ctx, code)
	return nil
}

func (r *cachedRepository) Delete(ctx context.Context, code string) error {
	if err := r.Repository.Delete(ctx, code); err != nil {
		return err
	}
	r.evict(ctx, code)
	return nil
}

func (r *cachedRepository) evict(ctx context.Context, code string) {
	if err := r.cache.Del(ctx, r.cache.CacheKey(cacheKind, code)); err != nil {
		r.warn(ctx, "project cache eviction failed", code, err)
	}
}

func (r *cachedRepository) warn(ctx context.Context, msg, code string, err error) {
	if r.logg == nil {
		return
	}
	fields := map[string]any{"project_code": code}
	if err != nil {
		fields["error"] = err.Error()
	}
	r.logg.Warn(r.logg.WithFields(ctx, fields), msg)
}
