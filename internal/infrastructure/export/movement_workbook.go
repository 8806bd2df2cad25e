// Package export renders ledger data as spreadsheet workbooks.
package export

import (
	"fmt"
	"io"
	"strings"

	inventoryapp "github.com/erp/stockledger/internal/application/inventory"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	movementSheet = "Movements"
	xlsxMIME      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var _ inventoryapp.MovementRenderer = (*MovementWorkbook)(nil)

var movementHeaders = []string{
	"Sequence", "Recorded At", "Type", "Product ID", "Warehouse ID",
	"Quantity", "On Hand Change", "Reserved Change", "Unusable Change",
	"On Hand After", "Reserved After", "Unusable After",
	"Condition", "Reference Type", "Reference ID", "Actor ID", "Notes",
}

// MovementWorkbook writes stock movements to an xlsx workbook with one row
// per ledger line
type MovementWorkbook struct {
	title cases.Caser
}

// NewMovementWorkbook creates a renderer labelling enum values in English
func NewMovementWorkbook() *MovementWorkbook {
	return &MovementWorkbook{title: cases.Title(language.English)}
}

// ContentType returns the xlsx MIME type
func (w *MovementWorkbook) ContentType() string { return xlsxMIME }

// Extension returns the file extension without a dot
func (w *MovementWorkbook) Extension() string { return "xlsx" }

// Label turns an enum value such as DAMAGE_REVERSAL into "Damage Reversal"
func (w *MovementWorkbook) Label(value string) string {
	if value == "" {
		return ""
	}
	return w.title.String(strings.ReplaceAll(strings.ToLower(value), "_", " "))
}

// Render writes the workbook to out
func (w *MovementWorkbook) Render(out io.Writer, movements []inventoryapp.StockMovementResponse) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", movementSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(movementSheet)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	header := make([]any, len(movementHeaders))
	for i, h := range movementHeaders {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, m := range movements {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			m.Sequence,
			m.CreatedAt.UTC(),
			w.Label(m.Type),
			m.ProductID.String(),
			m.WarehouseID.String(),
			m.Quantity.InexactFloat64(),
			m.QuantityDelta.InexactFloat64(),
			m.ReservedDelta.InexactFloat64(),
			m.UnusableDelta.InexactFloat64(),
			m.QuantityAfter.InexactFloat64(),
			m.ReservedAfter.InexactFloat64(),
			m.UnusableAfter.InexactFloat64(),
			w.Label(m.Condition),
			m.ReferenceType,
			m.ReferenceID.String(),
			actorCell(m),
			m.Notes,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush workbook: %w", err)
	}
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func actorCell(m inventoryapp.StockMovementResponse) string {
	if m.ActorID == nil {
		return ""
	}
	return m.ActorID.String()
}
