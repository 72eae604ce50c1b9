package projects

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	"github.com/Kwakusharp7/fleet-managment/pkg/redis"
)

type fakeCache struct {
	data    map[string]string
	getErr  error
	deleted []string
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string]string{}} }

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	if c.getErr != nil {
		return "", c.getErr
	}
	v, ok := c.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.data[key] = value.(string)
	return nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.data, key)
		c.deleted = append(c.deleted, key)
	}
	return nil
}

func (c *fakeCache) CacheKey(kind, id string) string { return "fleet:cache:" + kind + ":" + id }

type countingRepo struct {
	Repository
	finds    int
	projects map[string]models.Project
}

func (r *countingRepo) FindByCode(_ context.Context, code string) (*models.Project, error) {
	r.finds++
	p, ok := r.projects[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *countingRepo) UpdateStatus(_ context.Context, code string, status enums.ProjectStatus) error {
	p := r.projects[code]
	p.Status = status
	r.projects[code] = p
	return nil
}

func TestCachedRepositoryReadThrough(t *testing.T) {
	base := &countingRepo{projects: map[string]models.Project{"P1": {Code: "P1", Name: "One", Status: enums.ProjectStatusActive}}}
	cache := newFakeCache()
	repo := NewCachedRepository(base, cache, time.Minute, nil)
	ctx := context.Background()

	first, err := repo.FindByCode(ctx, "P1")
	require.NoError(t, err)
	second, err := repo.FindByCode(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, 1, base.finds)

	require.NoError(t, repo.UpdateStatus(ctx, "P1", enums.ProjectStatusInactive))
	assert.Contains(t, cache.deleted, "fleet:cache:project:P1")

	third, err := repo.FindByCode(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, enums.ProjectStatusInactive, third.Status)
	assert.Equal(t, 2, base.finds)
}

func TestCachedRepositoryFallsBackOnCacheError(t *testing.T) {
	base := &countingRepo{projects: map[string]models.Project{"P1": {Code: "P1"}}}
	cache := newFakeCache()
	cache.getErr = errors.New("connection refused")
	repo := NewCachedRepository(base, cache, time.Minute, nil)

	_, err := repo.FindByCode(context.Background(), "P1")
	require.NoError(t, err)
	_, err = repo.FindByCode(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, 2, base.finds)
}

func TestCachedRepositoryDoesNotCacheMisses(t *testing.T) {
	base := &countingRepo{projects: map[string]models.Project{}}
	cache := newFakeCache()
	repo := NewCachedRepository(base, cache, time.Minute, nil)

	_, err := repo.FindByCode(context.Background(), "P404")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, cache.data)
}

func TestNewCachedRepositoryWithoutCache(t *testing.T) {
	base := &countingRepo{}
	assert.Same(t, Repository(base), NewCachedRepository(base, nil, time.Minute, nil))
}
