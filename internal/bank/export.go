package bank

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/mcq-extractor/internal/question"
)

const exportSheet = "Questions"

var exportHeaders = []string{
	"ID",
	"Question",
	"Option A",
	"Option B",
	"Option C",
	"Option D",
	"Answer",
	"Explanation",
	"Subject",
	"Year",
	"Source File",
	"Page",
	"Images",
	"Needs Review",
}

// ExportXLSX writes qs as a single-sheet workbook, one question per row.
// Inline data URI images are listed as "inline" to keep cells readable.
func ExportXLSX(w io.Writer, qs []question.Question) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exportSheet, cell, h)
	}

	for i := range qs {
		q := &qs[i]
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(exportSheet, cell, v)
		}

		write(1, q.ID)
		write(2, q.QuestionText)
		write(3, q.OptionA)
		write(4, q.OptionB)
		write(5, q.OptionC)
		write(6, q.OptionD)
		write(7, q.CorrectAnswer)
		write(8, q.Explanation)
		write(9, q.Subject)
		write(10, q.Year)
		write(11, q.SourceFile)
		write(12, q.PageNumber)
		write(13, imageCell(q.Images))
		write(14, q.NeedsReview)
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 14)
	_ = f.SetColWidth(exportSheet, "B", "B", 60)
	_ = f.SetColWidth(exportSheet, "C", "F", 28)
	_ = f.SetColWidth(exportSheet, "H", "H", 48)
	_ = f.SetColWidth(exportSheet, "K", "K", 24)
	_ = f.SetColWidth(exportSheet, "M", "M", 40)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func imageCell(refs []string) string {
	parts := make([]string, len(refs))
	for i, ref := range refs {
		if isDataURI(ref) {
			ref = "inline"
		}
		parts[i] = ref
	}
	return strings.Join(parts, "; ")
}
