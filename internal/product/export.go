package product

import (
	"fmt"
	"io"
	"strings"

	"github.com/dukerupert/backoffice/internal/model"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Products"

var exportHeader = []string{
	"SKU", "Name", "Category", "Type", "Price", "VAT %", "Price incl. VAT", "Unit", "Available", "Allergens",
}

// ExportXLSX writes the catalog grid as an Excel workbook.
func ExportXLSX(w io.Writer, products []model.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := setRow(f, 1, toAny(exportHeader)); err != nil {
		return err
	}

	for i, p := range products {
		price, _ := p.Price.Float64()
		vat, _ := p.VATRate.Float64()
		withVAT, _ := p.PriceWithVAT().Float64()
		row := []any{
			p.SKU, p.Name, p.Category, p.ProductType,
			price, vat, withVAT,
			p.Unit, p.IsAvailable, strings.Join(p.Allergens, ", "),
		}
		if err := setRow(f, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
