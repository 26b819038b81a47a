package reporting

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/modeling"
	"altcoin-leadlag/internal/scoring"
	"altcoin-leadlag/internal/storage/file"
)

// CoefficientsHeader is the header row of coefficients.csv.
var CoefficientsHeader = []string{"term", "coef", "std_err", "t", "p_value"}

// ScoresHeader is the header row of the scores CSV.
var ScoresHeader = []string{"symbol", "id", "category", "tier", "total", "market", "fundamentals", "adoption", "risk", "price", "market_cap"}

func renderRecords(header []string, records [][]string) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(records); err != nil {
		return "", fmt.Errorf("write records: %w", err)
	}
	return sb.String(), nil
}

// RenderCoefficientsCSV renders one row per regression term, intercept first.
func RenderCoefficientsCSV(reg *domain.RegressionResult) (string, error) {
	records := make([][]string, 0, len(reg.Terms))
	for _, t := range reg.Terms {
		records = append(records, []string{
			t.Name,
			file.FormatFloat(t.Coefficient),
			file.FormatFloat(t.StdError),
			file.FormatFloat(t.TStat),
			file.FormatFloat(t.PValue),
		})
	}
	return renderRecords(CoefficientsHeader, records)
}

// RenderCorrelationCSV renders the matrix with the column names as header and first cell of each row.
func RenderCorrelationCSV(m *modeling.CorrelationMatrix) (string, error) {
	header := append([]string{""}, m.Columns...)
	records := make([][]string, 0, len(m.Columns))
	for i, c := range m.Columns {
		rec := []string{c}
		for j := range m.Columns {
			rec = append(rec, file.FormatFloat(m.Values[i][j]))
		}
		records = append(records, rec)
	}
	return renderRecords(header, records)
}

// RenderRollingCSV renders a rolling correlation series. Undefined points are empty cells.
func RenderRollingCSV(points []modeling.RollingPoint, a, b string) (string, error) {
	records := make([][]string, 0, len(points))
	for _, p := range points {
		v := ""
		if p.Value != nil {
			v = file.FormatFloat(*p.Value)
		}
		records = append(records, []string{p.Date.Format(time.DateOnly), v})
	}
	return renderRecords([]string{file.DateColumn, a + "_vs_" + b}, records)
}

// RenderScoresCSV renders scored tokens in result order. Tokens without market data have empty price cells.
func RenderScoresCSV(a *scoring.Analysis) (string, error) {
	records := make([][]string, 0, len(a.Results))
	for _, r := range a.Results {
		price, mcap := "", ""
		if r.Market != nil {
			price = r.Market.CurrentPrice.String()
			mcap = strconv.FormatFloat(r.Market.MarketCap, 'f', 0, 64)
		}
		records = append(records, []string{
			r.Profile.Symbol,
			r.Profile.ID,
			r.Profile.Category,
			string(r.Tier),
			strconv.FormatFloat(r.Total, 'f', 1, 64),
			strconv.FormatFloat(r.MarketScore, 'f', 1, 64),
			strconv.FormatFloat(r.Fundamentals, 'f', 1, 64),
			strconv.FormatFloat(r.Adoption, 'f', 1, 64),
			strconv.FormatFloat(r.Risk, 'f', 1, 64),
			price,
			mcap,
		})
	}
	return renderRecords(ScoresHeader, records)
}
