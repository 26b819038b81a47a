package file

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"altcoin-leadlag/internal/domain"
)

// DateColumn is the first column of every table file.
const DateColumn = "date"

// MasterColumns lists the master table columns in file order.
var MasterColumns = []string{
	domain.ColBTCCap, domain.ColETHCap, domain.ColTotalCap, domain.ColOthersCap,
	domain.ColBTCDom, domain.ColETHDom, domain.ColMacroReturn,
}

// FormatFloat renders v losslessly. Undefined values render as an empty cell.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatPtr(p *float64) string {
	if p == nil {
		return ""
	}
	return FormatFloat(*p)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func parsePtr(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// WriteMasterCSV writes rows with a header line.
func WriteMasterCSV(w io.Writer, rows []domain.MasterRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{DateColumn}, MasterColumns...)); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Date.Format(time.DateOnly),
			FormatFloat(r.BTCCap), FormatFloat(r.ETHCap), FormatFloat(r.TotalCap), FormatFloat(r.OthersCap),
			FormatFloat(r.BTCDom), FormatFloat(r.ETHDom), FormatFloat(r.MacroReturn),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadMasterCSV parses a file written by WriteMasterCSV.
func ReadMasterCSV(r io.Reader) ([]domain.MasterRow, error) {
	records, err := readRecords(r, len(MasterColumns)+1)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.MasterRow, 0, len(records))
	for i, rec := range records {
		date, err := time.Parse(time.DateOnly, rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: parse date: %w", i+2, err)
		}
		vals := make([]float64, len(MasterColumns))
		for j := range MasterColumns {
			if vals[j], err = parseFloat(rec[j+1]); err != nil {
				return nil, fmt.Errorf("line %d: parse %s: %w", i+2, MasterColumns[j], err)
			}
		}
		rows = append(rows, domain.MasterRow{
			Date:        date,
			BTCCap:      vals[0],
			ETHCap:      vals[1],
			TotalCap:    vals[2],
			OthersCap:   vals[3],
			BTCDom:      vals[4],
			ETHDom:      vals[5],
			MacroReturn: vals[6],
		})
	}
	return rows, nil
}

// WriteFactorsCSV writes rows with a header line. Undefined values are empty cells.
func WriteFactorsCSV(w io.Writer, rows []domain.FactorRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{DateColumn}, domain.FactorColumns...)); err != nil {
		return err
	}
	for i := range rows {
		rec := make([]string, 0, len(domain.FactorColumns)+1)
		rec = append(rec, rows[i].Date.Format(time.DateOnly))
		for _, col := range domain.FactorColumns {
			v, ok, err := rows[i].Value(col)
			if err != nil {
				return err
			}
			if !ok {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, FormatFloat(v))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadFactorsCSV parses a file written by WriteFactorsCSV.
func ReadFactorsCSV(r io.Reader) ([]domain.FactorRow, error) {
	records, err := readRecords(r, len(domain.FactorColumns)+1)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.FactorRow, 0, len(records))
	for i, rec := range records {
		date, err := time.Parse(time.DateOnly, rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: parse date: %w", i+2, err)
		}
		row := domain.FactorRow{MasterRow: domain.MasterRow{Date: date}}
		for j, col := range domain.FactorColumns {
			p, err := parsePtr(rec[j+1])
			if err != nil {
				return nil, fmt.Errorf("line %d: parse %s: %w", i+2, col, err)
			}
			setFactor(&row, col, p)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// setFactor assigns a parsed cell. Non-nullable columns read an empty cell as NaN.
func setFactor(r *domain.FactorRow, col string, p *float64) {
	v := math.NaN()
	if p != nil {
		v = *p
	}
	switch col {
	case domain.ColBTCCap:
		r.BTCCap = v
	case domain.ColETHCap:
		r.ETHCap = v
	case domain.ColTotalCap:
		r.TotalCap = v
	case domain.ColOthersCap:
		r.OthersCap = v
	case domain.ColBTCDom:
		r.BTCDom = v
	case domain.ColETHDom:
		r.ETHDom = v
	case domain.ColMacroReturn:
		r.MacroReturn = v
	case domain.ColETHBTC:
		r.ETHBTC = p
	case domain.ColOthersBTC:
		r.OthersBTC = p
	case domain.ColOthersETH:
		r.OthersETH = p
	case domain.ColETHBTCRet:
		r.ETHBTCRet = p
	case domain.ColOthersBTCRet:
		r.OthersBTCRet = p
	case domain.ColBTCDomChange:
		r.BTCDomChange = p
	case domain.ColMacroLiquidity:
		r.MacroLiquidity = p
	case domain.ColQualityRatio:
		r.QualityRatio = v
	case domain.ColQualityAlpha:
		r.QualityAlpha = v
	}
}

// readRecords reads all records after the header and checks their width.
func readRecords(r io.Reader, width int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = width
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read csv: missing header")
	}
	return records[1:], nil
}
