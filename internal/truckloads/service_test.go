package truckloads

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Kwakusharp7/fleet-managment/internal/loads"
	dbpkg "github.com/Kwakusharp7/fleet-managment/pkg/db"
	"github.com/Kwakusharp7/fleet-managment/pkg/db/dbtest"
	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
	"github.com/Kwakusharp7/fleet-managment/pkg/outbox"
)

var testNow = time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)

type stubProjects struct{}

func (stubProjects) RequireActive(_ context.Context, code string) (*models.Project, error) {
	if code == "" || code == "MISSING" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
	}
	return &models.Project{Code: code, Status: enums.ProjectStatusActive}, nil
}

type fixture struct {
	svc  Service
	db   *gorm.DB
	repo loads.Repository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t)
	repo := loads.NewRepository(db)
	writer, err := loads.NewWriter(loads.WriterParams{
		DB:     dbpkg.NewFromConn(db),
		Repo:   repo,
		Outbox: outbox.NewService(outbox.NewRepository(db), nil),
		Now:    func() time.Time { return testNow },
	})
	require.NoError(t, err)
	svc, err := NewService(repo, writer, stubProjects{})
	require.NoError(t, err)
	return fixture{svc: svc, db: db, repo: repo}
}

func (f fixture) seedInventory(t *testing.T, code string, skids ...models.Skid) {
	t.Helper()
	require.NoError(t, f.repo.Create(context.Background(), &models.Load{
		ID:          uuid.New(),
		TruckID:     "INVENTORY-" + code,
		ProjectCode: code,
		Status:      enums.LoadStatusPlanned,
		IsInventory: true,
		TruckInfo:   models.TruckInfo{Length: 100, Width: 100, WeightCapacity: 100000},
		Skids:       skids,
		SkidCount:   len(skids),
		DateEntered: testNow,
		UpdatedAt:   testNow,
	}))
}

func (f fixture) start(t *testing.T, code string) *loads.LoadView {
	t.Helper()
	view, err := f.svc.StartOrResume(context.Background(), uuid.New(), code)
	require.NoError(t, err)
	return view
}

func TestStartOrResumeReusesPlannedLoad(t *testing.T) {
	f := newFixture(t)

	first := f.start(t, "P1")
	assert.Equal(t, enums.LoadStatusPlanned, first.Status)
	assert.Empty(t, first.TruckID)
	assert.Equal(t, models.TruckInfo{Length: 53, Width: 8.5, WeightCapacity: 48000}, first.TruckInfo)
	assert.False(t, first.IsInventory)

	second := f.start(t, "P1")
	assert.Equal(t, first.ID, second.ID)

	other := f.start(t, "P2")
	assert.NotEqual(t, first.ID, other.ID)

	_, err := f.svc.StartOrResume(context.Background(), uuid.Nil, "MISSING")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestStartOrResumeConvergesOnDuplicatePlaceholders(t *testing.T) {
	f := newFixture(t)
	older := f.start(t, "P1")
	racer := &models.Load{
		ID:                 uuid.New(),
		ProjectCode:        "P1",
		Status:             enums.LoadStatusPlanned,
		TruckInfo:          placeholderTruckInfo,
		Skids:              []models.Skid{},
		AdditionalProjects: []string{},
		Version:            1,
		DateEntered:        testNow,
		UpdatedAt:          testNow.Add(time.Second),
	}
	require.NoError(t, f.repo.Create(context.Background(), racer))

	for range 2 {
		resumed := f.start(t, "P1")
		assert.Equal(t, racer.ID, resumed.ID)
		assert.NotEqual(t, older.ID, resumed.ID)
	}
}

func TestSaveTruckInfo(t *testing.T) {
	f := newFixture(t)
	load := f.start(t, "P1")
	ctx := context.Background()

	_, err := f.svc.SaveTruckInfo(ctx, uuid.Nil, "P1", load.ID, TruckInfoInput{TruckID: "", Length: 53, Width: 8.5, WeightCapacity: 48000})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.SaveTruckInfo(ctx, uuid.Nil, "P1", load.ID, TruckInfoInput{TruckID: "T1", Length: 53, Width: 8.5, WeightCapacity: 500})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.SaveTruckInfo(ctx, uuid.Nil, "P2", load.ID, TruckInfoInput{TruckID: "T1", Length: 53, Width: 8.5, WeightCapacity: 48000})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProjectMismatch))

	view, err := f.svc.SaveTruckInfo(ctx, uuid.Nil, "P1", load.ID, TruckInfoInput{TruckID: "T1", Length: 48, Width: 8, WeightCapacity: 40000})
	require.NoError(t, err)
	assert.Equal(t, "T1", view.TruckID)
	assert.Equal(t, 384.0, view.Utilization.TruckArea)
}

func TestStagingRequiresPlanned(t *testing.T) {
	f := newFixture(t)
	load := f.start(t, "P1")
	require.NoError(t, f.db.Model(&models.Load{}).Where("id = ?", load.ID).Update("status", enums.LoadStatusLoaded).Error)

	_, err := f.svc.AddSkid(context.Background(), uuid.Nil, "P1", load.ID, loads.SkidInput{Width: 1, Length: 1, Weight: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))

	_, err = f.svc.ClearSkids(context.Background(), uuid.Nil, "P1", load.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))
}

func TestRemoveSkidFromDeliveredLoadKeepsSkids(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	load := f.start(t, "P1")
	view, err := f.svc.AddSkid(ctx, uuid.Nil, "P1", load.ID, loads.SkidInput{Width: 4, Length: 4, Weight: 250})
	require.NoError(t, err)
	require.Len(t, view.Skids, 1)
	require.NoError(t, f.db.Model(&models.Load{}).Where("id = ?", load.ID).Update("status", enums.LoadStatusDelivered).Error)

	_, err = f.svc.RemoveSkid(ctx, uuid.Nil, "P1", load.ID, view.Skids[0].ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))

	var stored models.Load
	require.NoError(t, f.db.First(&stored, "id = ?", load.ID).Error)
	assert.Len(t, stored.Skids, 1)
	assert.Equal(t, 1, stored.SkidCount)
	assert.Equal(t, 250.0, stored.TotalWeight)
}

func TestInventoryLoadIsNotATruck(t *testing.T) {
	f := newFixture(t)
	f.seedInventory(t, "P1")
	inventory, err := f.repo.FindInventory(context.Background(), "P1")
	require.NoError(t, err)

	_, err = f.svc.AddSkid(context.Background(), uuid.Nil, "P1", inventory.ID, loads.SkidInput{Width: 1, Length: 1, Weight: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))
}

func TestSkidLifecycleOnTruck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	load := f.start(t, "P1")
	_, err := f.svc.SaveTruckInfo(ctx, uuid.Nil, "P1", load.ID, TruckInfoInput{TruckID: "T7", Length: 53, Width: 8.5, WeightCapacity: 1000})
	require.NoError(t, err)

	view, err := f.svc.AddSkid(ctx, uuid.Nil, "P1", load.ID, loads.SkidInput{Width: 4, Length: 8, Weight: 700, OriginalInvID: "forged"})
	require.NoError(t, err)
	require.Len(t, view.Skids, 1)
	assert.Equal(t, "TRUCK-T7-1", view.Skids[0].ID)
	assert.Empty(t, view.Skids[0].OriginalInvID)
	assert.False(t, view.Overweight)

	weight := 1200.0
	view, err = f.svc.UpdateSkid(ctx, uuid.Nil, "P1", load.ID, "TRUCK-T7-1", loads.SkidPatch{Weight: &weight})
	require.NoError(t, err)
	assert.True(t, view.Overweight)

	view, err = f.svc.RemoveSkid(ctx, uuid.Nil, "P1", load.ID, "TRUCK-T7-1")
	require.NoError(t, err)
	assert.Zero(t, view.SkidCount)

	_, err = f.svc.RemoveSkid(ctx, uuid.Nil, "P1", load.ID, "TRUCK-T7-1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.AddSkid(ctx, uuid.Nil, "P1", load.ID, loads.SkidInput{Width: 1, Length: 1, Weight: 1})
	require.NoError(t, err)
	view, err = f.svc.ClearSkids(ctx, uuid.Nil, "P1", load.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Skids)
	assert.Zero(t, view.TotalWeight)
}

func TestPullFromInventory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedInventory(t, "P1",
		models.Skid{ID: "INV-P1-1", Width: 4, Length: 4, Weight: 100, Description: "pipe"},
		models.Skid{ID: "INV-P1-2", Width: 2, Length: 2, Weight: 50},
	)
	load := f.start(t, "P1")

	result, err := f.svc.PullFromInventory(ctx, uuid.Nil, "P1", load.ID, "", []string{"INV-P1-1", "INV-P1-9", "INV-P1-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.NotFound)
	assert.Zero(t, result.AlreadyOnTruck)
	require.Len(t, result.Load.Skids, 1)
	pulled := result.Load.Skids[0]
	assert.Equal(t, "INV-P1-1", pulled.OriginalInvID)
	assert.Equal(t, "P1", pulled.SourceProject)
	assert.Equal(t, "pipe", pulled.Description)
	assert.Equal(t, 100.0, result.Load.TotalWeight)

	again, err := f.svc.PullFromInventory(ctx, uuid.Nil, "P1", load.ID, "P1", []string{"INV-P1-1"})
	require.NoError(t, err)
	assert.Zero(t, again.Added)
	assert.Equal(t, 1, again.AlreadyOnTruck)
	assert.Equal(t, 1, again.Load.SkidCount)
	assert.Equal(t, result.Load.Version, again.Load.Version)

	// Inventory keeps its copy.
	inventory, err := f.repo.FindInventory(ctx, "P1")
	require.NoError(t, err)
	assert.Len(t, inventory.Skids, 2)

	_, err = f.svc.PullFromInventory(ctx, uuid.Nil, "P1", load.ID, "P1", nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestPullFromOtherProjectNeedsAttachment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedInventory(t, "P2", models.Skid{ID: "INV-P2-1", Width: 1, Length: 1, Weight: 5})
	load := f.start(t, "P1")

	_, err := f.svc.PullFromInventory(ctx, uuid.Nil, "P1", load.ID, "P2", []string{"INV-P2-1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProjectMismatch))

	view, err := f.svc.AddAdditionalProject(ctx, uuid.Nil, "P1", load.ID, "P2")
	require.NoError(t, err)
	assert.Equal(t, []string{"P2"}, view.AdditionalProjects)

	again, err := f.svc.AddAdditionalProject(ctx, uuid.Nil, "P1", load.ID, "P2")
	require.NoError(t, err)
	assert.Equal(t, view.Version, again.Version)

	result, err := f.svc.PullFromInventory(ctx, uuid.Nil, "P1", load.ID, "P2", []string{"INV-P2-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, "P2", result.Load.Skids[0].SourceProject)

	staging, err := f.svc.Staging(ctx, "P1", load.ID)
	require.NoError(t, err)
	require.Len(t, staging.Inventories, 2)
	assert.Equal(t, "P1", staging.Inventories[0].ProjectCode)
	assert.Empty(t, staging.Inventories[0].Skids)
	require.Len(t, staging.Inventories[1].Skids, 1)
	assert.True(t, staging.Inventories[1].Skids[0].AlreadyOnTruck)

	_, err = f.svc.AddAdditionalProject(ctx, uuid.Nil, "P1", load.ID, "MISSING")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
