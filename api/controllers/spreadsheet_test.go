package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Kwakusharp7/fleet-managment/internal/inventory"
	"github.com/Kwakusharp7/fleet-managment/internal/loads"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
)

type testSpreadsheetService struct {
	exportFn func(ctx context.Context, loadID uuid.UUID, w io.Writer) (*loads.PrintSummary, error)
	importFn func(ctx context.Context, actorID uuid.UUID, code string, r io.Reader) (*inventory.View, error)
}

func (s *testSpreadsheetService) ExportPackingSheet(ctx context.Context, loadID uuid.UUID, w io.Writer) (*loads.PrintSummary, error) {
	return s.exportFn(ctx, loadID, w)
}

func (s *testSpreadsheetService) ImportInventory(ctx context.Context, actorID uuid.UUID, code string, r io.Reader) (*inventory.View, error) {
	return s.importFn(ctx, actorID, code, r)
}

func TestExportPackingSheet(t *testing.T) {
	loadID := uuid.New()
	svc := &testSpreadsheetService{exportFn: func(_ context.Context, id uuid.UUID, w io.Writer) (*loads.PrintSummary, error) {
		_, _ = w.Write([]byte("PK-workbook"))
		return &loads.PrintSummary{LoadID: id, TruckID: "TRK 7/A"}, nil
	}}
	resp := httptest.NewRecorder()
	ExportPackingSheet(svc, testLogger())(resp, newActorRequest(http.MethodGet, "/", "", map[string]string{"loadId": loadID.String()}))

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := resp.Header().Get("Content-Disposition"); cd != `attachment; filename="packing-list-TRK_7_A.xlsx"` {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if resp.Body.String() != "PK-workbook" {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
}

func TestExportPackingSheetErrorIsJSON(t *testing.T) {
	svc := &testSpreadsheetService{exportFn: func(_ context.Context, _ uuid.UUID, w io.Writer) (*loads.PrintSummary, error) {
		_, _ = w.Write([]byte("partial"))
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "load not found")
	}}
	resp := httptest.NewRecorder()
	ExportPackingSheet(svc, testLogger())(resp, newActorRequest(http.MethodGet, "/", "", map[string]string{"loadId": uuid.NewString()}))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), "partial") {
		t.Fatal("partial workbook leaked into error response")
	}
}

func multipartUpload(t *testing.T, field string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, "skids.xlsx")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func TestImportInventory(t *testing.T) {
	svc := &testSpreadsheetService{importFn: func(_ context.Context, actorID uuid.UUID, code string, r io.Reader) (*inventory.View, error) {
		data, _ := io.ReadAll(r)
		if string(data) != "xlsx-bytes" || code != "T7" || actorID != testActor {
			t.Fatalf("unexpected import %q %s %s", data, code, actorID)
		}
		view := inventoryView(code)
		view.SkidCount = 3
		return view, nil
	}}

	body, contentType := multipartUpload(t, "file", []byte("xlsx-bytes"))
	req := newActorRequest(http.MethodPost, "/", "", map[string]string{"projectCode": "T7"})
	req.Body = io.NopCloser(body)
	req.Header.Set("Content-Type", contentType)

	resp := httptest.NewRecorder()
	ImportInventory(svc, testLogger())(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestImportInventoryRequiresFile(t *testing.T) {
	body, contentType := multipartUpload(t, "other", []byte("x"))
	req := newActorRequest(http.MethodPost, "/", "", map[string]string{"projectCode": "T7"})
	req.Body = io.NopCloser(body)
	req.Header.Set("Content-Type", contentType)

	resp := httptest.NewRecorder()
	ImportInventory(&testSpreadsheetService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if env := decodeError(t, resp); env.Error.Details["field"] != "file" {
		t.Fatalf("unexpected details %v", env.Error.Details)
	}
}
