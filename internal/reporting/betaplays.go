package reporting

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"altcoin-leadlag/internal/betaplays"
)

// BetaPlaysSheet is the worksheet name of the beta plays workbook.
const BetaPlaysSheet = "Beta Plays"

// RenderBetaPlaysCSV renders the sheet rows under betaplays.Header.
func RenderBetaPlaysCSV(rows []betaplays.Row) (string, error) {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.Record())
	}
	return renderRecords(betaplays.Header, records)
}

// BuildBetaPlaysWorkbook lays the rows out in a single worksheet with a bold,
// frozen header. Numeric cells are written as numbers. The caller closes the file.
func BuildBetaPlaysWorkbook(rows []betaplays.Row) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", BetaPlaysSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(betaplays.Header))
	for i, h := range betaplays.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(BetaPlaysSheet, "A1", &header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		price, _ := r.Price.Float64()
		cells := []any{r.Ticker, r.Category, price, r.MarketCap, r.FDV, r.Change24h, r.Change7d, r.Volume24h, r.Explanation}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(BetaPlaysSheet, cell, &cells); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %s: %w", r.Ticker, err)
		}
	}

	if err := styleHeader(f, len(betaplays.Header)); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func styleHeader(f *excelize.File, columns int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(BetaPlaysSheet, "A1", last, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(BetaPlaysSheet, "A", "H", 16); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(BetaPlaysSheet, "I", "I", 80); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetPanes(BetaPlaysSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	return nil
}

// WriteBetaPlaysXLSX saves the workbook to path.
func WriteBetaPlaysXLSX(path string, rows []betaplays.Row) error {
	f, err := BuildBetaPlaysWorkbook(rows)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// RenderBetaPlaysTable renders the rows as a fixed-width console table.
func RenderBetaPlaysTable(rows []betaplays.Row) string {
	var sb strings.Builder

	sb.WriteString("ETHEREUM BETA PLAYS - GOOGLE SHEETS FORMAT\n")
	sb.WriteString(strings.Repeat("=", 100) + "\n")
	sb.WriteString(fmt.Sprintf("%-8s %-15s %-12s %-15s %-15s %-8s %-8s %-15s\n",
		"TICKER", "CATEGORY", "PRICE", "MARKET CAP", "FDV", "24H", "7D", "VOL 24H"))
	sb.WriteString(strings.Repeat("-", 100) + "\n")

	for _, r := range rows {
		priceStr := "N/A"
		if r.Price.IsPositive() {
			price, _ := r.Price.Float64()
			priceStr = formatPrice(price)
		}
		sb.WriteString(fmt.Sprintf("%-8s %-15s %-12s %-15s %-15s %-8s %-8s %-15s\n",
			r.Ticker, r.Category, priceStr,
			formatAmount(r.MarketCap), formatAmount(r.FDV),
			r.Change24h, r.Change7d, formatAmount(r.Volume24h)))
	}

	return sb.String()
}
