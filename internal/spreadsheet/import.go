package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"

	"github.com/Kwakusharp7/fleet-managment/internal/loads"
	"github.com/Kwakusharp7/fleet-managment/internal/measure"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
)

// MaxImportRows bounds the data rows read from one workbook.
const MaxImportRows = 1000

var errRequiredColumn = errors.New("missing required column")

type columns struct {
	width, length, weight, description int
}

// ParseSkids reads inventory skids from the first sheet of an XLSX workbook.
// The header row names the Width, Length, Weight and Description columns in
// any order; Weight and Description are optional. A blank weight is estimated
// from the footprint. Every invalid row is reported, not just the first.
func ParseSkids(r io.Reader) ([]loads.SkidInput, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file is not a readable XLSX workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unable to read rows from sheet")
	}
	if len(rows) < 2 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no data found in the workbook")
	}

	cols, err := headerColumns(rows[0])
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	var (
		skids   []loads.SkidInput
		rowErrs error
	)
	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}
		if len(skids) == MaxImportRows {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d skids per import", MaxImportRows))
		}
		skid, err := parseRow(row, cols)
		if err != nil {
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("row %d: %w", line, err))
			continue
		}
		skids = append(skids, skid)
	}
	if rowErrs != nil {
		problems := multierr.Errors(rowErrs)
		messages := make([]string, 0, len(problems))
		for _, problem := range problems {
			messages = append(messages, problem.Error())
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%d invalid rows", len(problems))).
			WithDetails(map[string]any{"rows": messages})
	}
	if len(skids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no data found in the workbook")
	}
	return skids, nil
}

func headerColumns(header []string) (columns, error) {
	cols := columns{width: -1, length: -1, weight: -1, description: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "width":
			cols.width = i
		case "length":
			cols.length = i
		case "weight":
			cols.weight = i
		case "description":
			cols.description = i
		}
	}
	var err error
	if cols.width < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: Width", errRequiredColumn))
	}
	if cols.length < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: Length", errRequiredColumn))
	}
	return cols, err
}

func parseRow(row []string, cols columns) (loads.SkidInput, error) {
	width, widthErr := number(row, cols.width, "width")
	length, lengthErr := number(row, cols.length, "length")
	if err := multierr.Combine(widthErr, lengthErr); err != nil {
		return loads.SkidInput{}, err
	}

	weight := 0.0
	if raw := cell(row, cols.weight); raw != "" {
		parsed, err := number(row, cols.weight, "weight")
		if err != nil {
			return loads.SkidInput{}, err
		}
		weight = parsed
	} else {
		estimated, err := measure.CalculateSkidWeight(width, length)
		if err != nil {
			return loads.SkidInput{}, err
		}
		weight = estimated
	}

	description := cell(row, cols.description)
	if len([]rune(description)) > loads.MaxDescriptionLength {
		return loads.SkidInput{}, fmt.Errorf("description must be at most %d characters", loads.MaxDescriptionLength)
	}
	return loads.SkidInput{Width: width, Length: length, Weight: weight, Description: description}, nil
}

func number(row []string, idx int, name string) (float64, error) {
	raw := cell(row, idx)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", name, raw)
	}
	v = measure.Round2(v)
	if v <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", name)
	}
	return v, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
