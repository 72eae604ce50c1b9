package spreadsheet

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Kwakusharp7/fleet-managment/internal/inventory"
	"github.com/Kwakusharp7/fleet-managment/internal/loads"
	"github.com/Kwakusharp7/fleet-managment/internal/measure"
	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestParseSkids(t *testing.T) {
	buf := workbook(t, [][]any{
		{"Description", "Width", "Length", "Weight"},
		{"steel beams", 4, 8, 1250.5},
		{"", "", "", ""},
		{"crate", "3.333", 2, ""},
	})

	skids, err := ParseSkids(buf)
	require.NoError(t, err)
	require.Len(t, skids, 2)
	assert.Equal(t, loads.SkidInput{Width: 4, Length: 8, Weight: 1250.5, Description: "steel beams"}, skids[0])

	expected, err := measure.CalculateSkidWeight(3.33, 2)
	require.NoError(t, err)
	assert.Equal(t, 3.33, skids[1].Width)
	assert.Equal(t, expected, skids[1].Weight)
}

func TestParseSkidsReportsEveryBadRow(t *testing.T) {
	buf := workbook(t, [][]any{
		{"Width", "Length", "Weight"},
		{"wide", 4, 10},
		{4, 4, 10},
		{-1, 4, 10},
		{2, "", 10},
	})

	_, err := ParseSkids(buf)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	rows, ok := details["rows"].([]string)
	require.True(t, ok)
	require.Len(t, rows, 3)
	assert.Contains(t, rows[0], "row 2")
	assert.Contains(t, rows[1], "row 4")
	assert.Contains(t, rows[2], "row 5")
}

func TestParseSkidsRejectsBadWorkbooks(t *testing.T) {
	_, err := ParseSkids(bytes.NewBufferString("not a workbook"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ParseSkids(workbook(t, [][]any{{"Width", "Weight"}, {1, 2}}))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ParseSkids(workbook(t, [][]any{{"Width", "Length"}}))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

type stubSummarizer struct {
	summary *loads.PrintSummary
	err     error
}

func (s stubSummarizer) Summary(context.Context, uuid.UUID) (*loads.PrintSummary, error) {
	return s.summary, s.err
}

type recordingImporter struct {
	project string
	skids   []loads.SkidInput
}

func (r *recordingImporter) AddSkids(_ context.Context, _ uuid.UUID, projectCode string, inputs []loads.SkidInput) (*inventory.View, error) {
	r.project = projectCode
	r.skids = inputs
	return &inventory.View{}, nil
}

func TestExportPackingSheet(t *testing.T) {
	summary := &loads.PrintSummary{
		LoadID:      uuid.New(),
		TruckID:     "T-9",
		ProjectCode: "P1",
		ProjectName: "North Tower",
		Status:      enums.LoadStatusLoaded,
		TruckInfo:   models.TruckInfo{Length: 53, Width: 8.5, WeightCapacity: 48000},
		Skids: []models.Skid{
			{ID: "TRUCK-T-9-1", Width: 4, Length: 4, Weight: 200, Description: "bolts", SourceProject: "P1"},
			{ID: "TRUCK-T-9-2", Width: 2, Length: 3, Weight: 90},
		},
		SkidCount:   2,
		TotalWeight: 290,
		Utilization: loads.UtilizationView{Formatted: "4.9%"},
		PackingList: models.PackingList{Carrier: "Acme", Signature: "data:image/png;base64,AAAA"},
		DateEntered: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	svc, err := NewService(stubSummarizer{summary: summary}, &recordingImporter{})
	require.NoError(t, err)

	var buf bytes.Buffer
	got, err := svc.ExportPackingSheet(context.Background(), summary.LoadID, &buf)
	require.NoError(t, err)
	assert.Same(t, summary, got)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{packingSheet}, f.GetSheetList())
	rows, err := f.GetRows(packingSheet)
	require.NoError(t, err)

	var flat []string
	for _, row := range rows {
		flat = append(flat, row...)
	}
	assert.Contains(t, flat, "T-9")
	assert.Contains(t, flat, "North Tower")
	assert.Contains(t, flat, "TRUCK-T-9-2")
	assert.Contains(t, flat, "bolts")
	assert.Contains(t, flat, "4.9%")
	assert.Contains(t, flat, "Yes")
}

func TestExportPropagatesSummaryErrors(t *testing.T) {
	svc, err := NewService(stubSummarizer{err: pkgerrors.New(pkgerrors.CodeNotFound, "load not found")}, &recordingImporter{})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = svc.ExportPackingSheet(context.Background(), uuid.New(), &buf)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Zero(t, buf.Len())
}

func TestImportInventory(t *testing.T) {
	importer := &recordingImporter{}
	svc, err := NewService(stubSummarizer{}, importer)
	require.NoError(t, err)

	buf := workbook(t, [][]any{{"Width", "Length", "Weight", "Description"}, {1, 2, 3, "x"}})
	_, err = svc.ImportInventory(context.Background(), uuid.New(), "P7", buf)
	require.NoError(t, err)
	assert.Equal(t, "P7", importer.project)
	assert.Len(t, importer.skids, 1)

	_, err = NewService(nil, importer)
	assert.Error(t, err)
}
