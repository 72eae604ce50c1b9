package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"regexp"

	"github.com/Kwakusharp7/fleet-managment/api/responses"
	"github.com/Kwakusharp7/fleet-managment/api/validators"
	"github.com/Kwakusharp7/fleet-managment/internal/spreadsheet"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// MaxImportBytes bounds an uploaded inventory workbook.
	MaxImportBytes  = 10 << 20
	importFormField = "file"
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ExportPackingSheet streams a load's packing sheet as an XLSX attachment.
// The workbook is rendered fully before any byte is sent so failures still
// produce a JSON error.
func ExportPackingSheet(svc spreadsheet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("spreadsheet"))
			return
		}
		loadID, err := validators.ParseUUIDParam(r, "loadId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var buf bytes.Buffer
		summary, err := svc.ExportPackingSheet(r.Context(), loadID, &buf)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		name := summary.TruckID
		if name == "" {
			name = loadID.String()
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="packing-list-%s.xlsx"`, unsafeFilename.ReplaceAllString(name, "_")))
		w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil && logg != nil {
			logg.Error(r.Context(), "spreadsheet.export.write_failed", err)
		}
	}
}

// ImportInventory stages the skids of an uploaded workbook into the project's
// inventory. The file is sent as the multipart field "file".
func ImportInventory(svc spreadsheet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("spreadsheet"))
			return
		}
		actorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		code, err := validators.ProjectCodeParam(r, "projectCode")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, MaxImportBytes)
		if err := r.ParseMultipartForm(MaxImportBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart upload").
				WithDetails(map[string]any{"max_bytes": MaxImportBytes}))
			return
		}
		if r.MultipartForm != nil {
			defer func() { _ = r.MultipartForm.RemoveAll() }()
		}
		file, _, err := r.FormFile(importFormField)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "workbook file required").
				WithDetails(map[string]any{"field": importFormField}))
			return
		}
		defer file.Close()

		view, err := svc.ImportInventory(r.Context(), actorID, code, file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			ctx := logg.WithFields(logg.WithProject(r.Context(), code), map[string]any{"skid_count": view.SkidCount})
			logg.Info(ctx, "inventory.imported")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}
