// Package report renders inventory exports.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"go-inventory-checklist/internal/model"
)

const stockSheet = "Estoque"

var stockHeader = []interface{}{
	"id", "nome", "categoria", "fornecedor", "unidade",
	"estoque_atual", "estoque_minimo", "estoque_maximo", "custo", "valor_total",
	"melhor_dia_compra", "abaixo_do_minimo",
}

// StockFileName is the download name of a stock export taken at t.
func StockFileName(t time.Time) string {
	return fmt.Sprintf("estoque_%s.xlsx", t.Format("20060102_150405"))
}

// WriteStock writes one row per product to w as an xlsx workbook.
func WriteStock(w io.Writer, products []model.Product) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), stockSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(stockSheet, "A1", &stockHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := 2
	for _, p := range products {
		var category, supplier, day string
		if p.Category != nil {
			category = p.Category.Name
		}
		if p.Supplier != nil {
			supplier = p.Supplier.Name
		}
		if p.BestPurchaseDay != nil {
			day = string(*p.BestPurchaseDay)
		}
		var cost, total interface{}
		if p.Cost != nil {
			cost = p.Cost.InexactFloat64()
			total = p.Cost.Mul(p.CurrentStock).InexactFloat64()
		}

		excelRow := []interface{}{
			p.ID.String(),
			p.Name,
			category,
			supplier,
			p.Unit,
			p.CurrentStock.InexactFloat64(),
			p.MinStock.InexactFloat64(),
			p.MaxStock.InexactFloat64(),
			cost,
			total,
			day,
			p.IsLowStock(),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(stockSheet, cell, &excelRow); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		row++
	}

	return f.Write(w)
}
