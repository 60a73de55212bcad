package signup

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportTimeLayout formats the "Signed Up" column.
const ExportTimeLayout = "2006-01-02 15:04"

// ExportHeaders are the column titles of every export format.
var ExportHeaders = []string{"Name", "Email", "Role", "Interested Plans", "Message", "Signed Up"}

// ExportFileName returns "beta-signups-YYYY-MM-DD.<ext>".
func ExportFileName(now time.Time, ext string) string {
	return fmt.Sprintf("beta-signups-%s.%s", now.Format("2006-01-02"), ext)
}

func exportRow(s Signup) []string {
	plans := make([]string, len(s.InterestedPlans))
	for i, p := range s.InterestedPlans {
		plans[i] = string(p)
	}
	return []string{
		s.Name,
		s.Email,
		string(s.Role),
		strings.Join(plans, "; "),
		s.Message,
		s.CreatedAt.Format(ExportTimeLayout),
	}
}

// WriteCSV writes the signups as CSV with a header row.
func WriteCSV(w io.Writer, signups []Signup) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeaders); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range signups {
		if err := cw.Write(exportRow(s)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

const xlsxSheet = "Signups"

// WriteXLSX writes the signups as a single-sheet Excel workbook.
func WriteXLSX(w io.Writer, signups []Signup) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(ExportHeaders))
	for i, h := range ExportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, s := range signups {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := exportRow(s)
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = v
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &vals); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(xlsxSheet, "A", "F", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ExportFormats lists the formats Export accepts.
var ExportFormats = []string{"csv", "xlsx"}

// ErrExportFormat is returned by Export for an unknown format.
var ErrExportFormat = errors.New("export format must be csv or xlsx")

// Export writes signups in the named format.
func Export(w io.Writer, format string, signups []Signup) error {
	switch format {
	case "csv":
		return WriteCSV(w, signups)
	case "xlsx":
		return WriteXLSX(w, signups)
	}
	return fmt.Errorf("%w: got %q", ErrExportFormat, format)
}

// ContentType returns the MIME type of an export format.
func ContentType(format string) string {
	switch format {
	case "csv":
		return "text/csv; charset=utf-8"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}
