// Package export renders reservation listings as Excel workbooks for the
// admin download endpoint.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"aulabook/internal/models"
)

// ExcelWriter writes tabular data to Excel format.
type ExcelWriter interface {
	// AddSheet adds a new sheet with the given name and makes it current.
	AddSheet(name string) error

	// WriteHeader writes column headers to the current sheet.
	WriteHeader(columns []string) error

	// WriteRow writes a data row to the current sheet.
	WriteRow(row []interface{}) error

	// Save writes the workbook to the writer.
	Save(w io.Writer) error

	// Close releases resources.
	Close() error
}

// ExcelizeWriter implements ExcelWriter using the excelize library.
type ExcelizeWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

// NewExcelizeWriter creates a new Excel writer.
func NewExcelizeWriter() ExcelWriter {
	return &ExcelizeWriter{
		file: excelize.NewFile(),
	}
}

// AddSheet adds a new sheet with the given name.
func (w *ExcelizeWriter) AddSheet(name string) error {
	// Excel caps sheet names at 31 chars.
	if len(name) > 31 {
		name = name[:31]
	}

	if w.currentSheet == "" {
		// First sheet: rename the default one instead of adding.
		w.file.SetSheetName("Sheet1", name)
	} else {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

// WriteHeader writes column headers to the current sheet.
func (w *ExcelizeWriter) WriteHeader(columns []string) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, col); err != nil {
			return err
		}
	}

	style, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow)
		_ = w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
	}

	w.currentRow++
	return nil
}

// WriteRow writes a data row to the current sheet.
func (w *ExcelizeWriter) WriteRow(row []interface{}) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}

	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, val); err != nil {
			return err
		}
	}

	w.currentRow++
	return nil
}

// Save writes the workbook to the writer.
func (w *ExcelizeWriter) Save(wr io.Writer) error {
	return w.file.Write(wr)
}

// Close releases resources.
func (w *ExcelizeWriter) Close() error {
	return w.file.Close()
}

var reservationColumns = []string{
	"ID", "Room", "Requester", "Activity", "Day", "Start", "End",
	"Responsible", "Phone", "Status", "Cancel Requested", "Cancel Reason",
	"Admin Note", "Created",
}

// WriteReservations writes reservations grouped into one sheet per status,
// in lifecycle order. Empty statuses are skipped; an empty export still
// produces a workbook with a single summary sheet so the file opens.
func WriteReservations(w ExcelWriter, reservations []models.Reservation, loc *time.Location) error {
	byStatus := make(map[string][]models.Reservation)
	for _, res := range reservations {
		byStatus[res.Status] = append(byStatus[res.Status], res)
	}

	wrote := false
	for _, status := range []string{
		models.StatusPending,
		models.StatusApproved,
		models.StatusClosed,
		models.StatusCancelled,
		models.StatusRejected,
	} {
		group := byStatus[status]
		if len(group) == 0 {
			continue
		}
		if err := writeSheet(w, status, group, loc); err != nil {
			return err
		}
		wrote = true
	}

	if !wrote {
		if err := w.AddSheet("Reservations"); err != nil {
			return err
		}
		return w.WriteHeader(reservationColumns)
	}
	return nil
}

func writeSheet(w ExcelWriter, name string, group []models.Reservation, loc *time.Location) error {
	if err := w.AddSheet(name); err != nil {
		return err
	}
	if err := w.WriteHeader(reservationColumns); err != nil {
		return err
	}

	for _, res := range group {
		cancelRequested := ""
		if res.CancelRequested {
			cancelRequested = "yes"
		}
		row := []interface{}{
			res.ID,
			res.RoomName,
			res.RequesterName,
			res.Activity,
			res.Day(loc).String(),
			res.StartTime.In(loc).Format("2006-01-02 15:04"),
			res.EndTime.In(loc).Format("2006-01-02 15:04"),
			res.Responsible,
			res.ResponsiblePhone,
			res.Status,
			cancelRequested,
			res.CancelReason,
			res.AdminNote,
			res.CreatedAt.In(loc).Format("2006-01-02 15:04"),
		}
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

// Filename names the export after its generation date, e.g.
// "reservations_2024-06-03.xlsx".
func Filename(t time.Time, loc *time.Location) string {
	return fmt.Sprintf("reservations_%s.xlsx", t.In(loc).Format("2006-01-02"))
}
