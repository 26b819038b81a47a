package domain

import "fmt"

// Canonical column names of the factor table.
const (
	ColBTCCap         = "BTC_CAP"
	ColETHCap         = "ETH_CAP"
	ColTotalCap       = "TOTAL_CAP"
	ColOthersCap      = "OTHERS_CAP"
	ColBTCDom         = "BTC_DOM"
	ColETHDom         = "ETH_DOM"
	ColMacroReturn    = "macro_return"
	ColETHBTC         = "ETH_BTC"
	ColOthersBTC      = "OTHERS_BTC"
	ColOthersETH      = "OTHERS_ETH"
	ColETHBTCRet      = "eth_btc_ret"
	ColOthersBTCRet   = "others_btc_ret"
	ColBTCDomChange   = "btc_dom_change"
	ColMacroLiquidity = "macro_liquidity"
	ColQualityRatio   = "quality_ratio"
	ColQualityAlpha   = "quality_alpha"
)

// FactorColumns lists every factor table column in file order.
var FactorColumns = []string{
	ColBTCCap, ColETHCap, ColTotalCap, ColOthersCap, ColBTCDom, ColETHDom, ColMacroReturn,
	ColETHBTC, ColOthersBTC, ColOthersETH,
	ColETHBTCRet, ColOthersBTCRet, ColBTCDomChange, ColMacroLiquidity,
	ColQualityRatio, ColQualityAlpha,
}

// FactorRow is a master row extended with derived factors.
// Nil pointers mark undefined values (first rows of returns, windows, zero denominators).
type FactorRow struct {
	MasterRow

	ETHBTC    *float64 // ETHCap / BTCCap
	OthersBTC *float64 // OthersCap / BTCCap
	OthersETH *float64 // OthersCap / ETHCap

	ETHBTCRet      *float64 // pct change of ETHBTC
	OthersBTCRet   *float64 // pct change of OthersBTC
	BTCDomChange   *float64 // BTCDom[t] - BTCDom[t-1]
	MacroLiquidity *float64 // trailing mean of MacroReturn

	QualityRatio float64 // liquid top-N cap / OthersCap, 0 on fallback
	QualityAlpha float64 // QualityRatio[t] - QualityRatio[t-1], 0 on first row
}

// Value returns the named column and whether it is defined.
func (r *FactorRow) Value(column string) (float64, bool, error) {
	switch column {
	case ColBTCCap:
		return r.BTCCap, true, nil
	case ColETHCap:
		return r.ETHCap, true, nil
	case ColTotalCap:
		return r.TotalCap, true, nil
	case ColOthersCap:
		return r.OthersCap, true, nil
	case ColBTCDom:
		return r.BTCDom, true, nil
	case ColETHDom:
		return r.ETHDom, true, nil
	case ColMacroReturn:
		return r.MacroReturn, true, nil
	case ColETHBTC:
		return deref(r.ETHBTC)
	case ColOthersBTC:
		return deref(r.OthersBTC)
	case ColOthersETH:
		return deref(r.OthersETH)
	case ColETHBTCRet:
		return deref(r.ETHBTCRet)
	case ColOthersBTCRet:
		return deref(r.OthersBTCRet)
	case ColBTCDomChange:
		return deref(r.BTCDomChange)
	case ColMacroLiquidity:
		return deref(r.MacroLiquidity)
	case ColQualityRatio:
		return r.QualityRatio, true, nil
	case ColQualityAlpha:
		return r.QualityAlpha, true, nil
	}
	return 0, false, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
}

// IsFactorColumn reports whether name is a known factor table column.
func IsFactorColumn(name string) bool {
	for _, c := range FactorColumns {
		if c == name {
			return true
		}
	}
	return false
}

func deref(p *float64) (float64, bool, error) {
	if p == nil {
		return 0, false, nil
	}
	return *p, true, nil
}
