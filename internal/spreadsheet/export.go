package spreadsheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Kwakusharp7/fleet-managment/internal/loads"
)

const packingSheet = "Packing List"

var skidColumns = []string{"#", "Skid ID", "Width (ft)", "Length (ft)", "Weight (lb)", "Description", "Source Project"}

// WritePackingSheet renders summary as a single-sheet workbook.
func WritePackingSheet(w io.Writer, summary *loads.PrintSummary) error {
	if summary == nil {
		return fmt.Errorf("packing summary required")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", packingSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	if err != nil {
		return err
	}

	sheet := &sheetWriter{f: f, name: packingSheet, bold: bold}
	sheet.set(1, 1, "Packing List")
	if err := f.SetCellStyle(packingSheet, "A1", "A1", title); err != nil {
		return err
	}

	list := summary.PackingList
	sheet.row = 3
	sheet.pair("Load", summary.LoadID.String())
	sheet.pair("Truck", summary.TruckID)
	sheet.pair("Project", summary.ProjectCode)
	sheet.pair("Project name", summary.ProjectName)
	sheet.pair("Project address", summary.ProjectAddress)
	sheet.pair("Status", string(summary.Status))
	sheet.pair("Date entered", summary.DateEntered.UTC().Format("2006-01-02"))
	sheet.pair("Date", list.Date)
	sheet.pair("Work order", list.WorkOrder)
	sheet.pair("Requested by", list.RequestedBy)
	sheet.pair("Carrier", list.Carrier)
	sheet.pair("Consignee", list.Consignee)
	sheet.pair("Consignee address", list.ConsigneeAddress)
	sheet.pair("Site contact", list.SiteContact)
	sheet.pair("Site phone", list.SitePhone)
	sheet.pair("Delivery date", list.DeliveryDate)
	sheet.pair("Truck size", fmt.Sprintf("%.2f x %.2f ft, %.0f lb", summary.TruckInfo.Length, summary.TruckInfo.Width, summary.TruckInfo.WeightCapacity))

	sheet.row++
	for i, heading := range skidColumns {
		sheet.set(i+1, sheet.row, heading)
	}
	sheet.boldRow(len(skidColumns))
	sheet.row++
	for i, skid := range summary.Skids {
		sheet.set(1, sheet.row, i+1)
		sheet.set(2, sheet.row, skid.ID)
		sheet.set(3, sheet.row, skid.Width)
		sheet.set(4, sheet.row, skid.Length)
		sheet.set(5, sheet.row, skid.Weight)
		sheet.set(6, sheet.row, skid.Description)
		sheet.set(7, sheet.row, skid.SourceProject)
		sheet.row++
	}

	sheet.row++
	sheet.pair("Skids", summary.SkidCount)
	sheet.pair("Total weight (lb)", summary.TotalWeight)
	sheet.pair("Space utilization", summary.Utilization.Formatted)
	if summary.Overweight {
		sheet.pair("Overweight", "YES")
	}
	sheet.row++
	sheet.pair("Packaged by", list.PackagedBy)
	sheet.pair("Checked by", list.CheckedBy)
	sheet.pair("Received by", list.ReceivedBy)
	signed := "No"
	if list.Signature != "" {
		signed = "Yes"
	}
	sheet.pair("Signed", signed)

	if sheet.err != nil {
		return sheet.err
	}
	if err := f.SetColWidth(packingSheet, "A", "A", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(packingSheet, "B", "G", 16); err != nil {
		return err
	}
	return f.Write(w)
}

// sheetWriter keeps the first cell error so the layout code stays linear.
type sheetWriter struct {
	f    *excelize.File
	name string
	bold int
	row  int
	err  error
}

func (s *sheetWriter) set(col, row int, value any) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellValue(s.name, cell, value)
}

func (s *sheetWriter) pair(label string, value any) {
	if str, ok := value.(string); ok && str == "" {
		return
	}
	s.set(1, s.row, label)
	s.set(2, s.row, value)
	if s.err == nil {
		cell, _ := excelize.CoordinatesToCellName(1, s.row)
		s.err = s.f.SetCellStyle(s.name, cell, cell, s.bold)
	}
	s.row++
}

func (s *sheetWriter) boldRow(cols int) {
	if s.err != nil {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, s.row)
	last, _ := excelize.CoordinatesToCellName(cols, s.row)
	s.err = s.f.SetCellStyle(s.name, first, last, s.bold)
}
