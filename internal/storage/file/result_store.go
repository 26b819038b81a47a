package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/storage"
)

// ResultStore keeps the latest model run in <dir>/regression.json.
type ResultStore struct {
	path string
}

// NewResultStore creates a store rooted at dir.
func NewResultStore(dir string) *ResultStore {
	return &ResultStore{path: filepath.Join(dir, RegressionFile)}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// JSON cannot carry NaN or Inf, so non-finite floats travel as null.
type number = *float64

func toNumber(v float64) number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func fromNumber(n number) float64 {
	if n == nil {
		return math.NaN()
	}
	return *n
}

type termJSON struct {
	Name        string `json:"name"`
	Coefficient number `json:"coefficient"`
	StdError    number `json:"std_error"`
	TStat       number `json:"t_stat"`
	PValue      number `json:"p_value"`
}

type regressionJSON struct {
	RunID        string     `json:"run_id"`
	Target       string     `json:"target"`
	Terms        []termJSON `json:"terms"`
	NObs         int        `json:"n_obs"`
	DFResid      int        `json:"df_resid"`
	DFModel      int        `json:"df_model"`
	RSquared     number     `json:"r_squared"`
	AdjRSquared  number     `json:"adj_r_squared"`
	FStatistic   number     `json:"f_statistic"`
	FPValue      number     `json:"f_p_value"`
	LogLik       number     `json:"log_likelihood"`
	AIC          number     `json:"aic"`
	BIC          number     `json:"bic"`
	DurbinWatson number     `json:"durbin_watson"`
	FittedAt     time.Time  `json:"fitted_at"`
}

type grangerJSON struct {
	Cause   string `json:"cause"`
	Effect  string `json:"effect"`
	Shift   int    `json:"shift"`
	Lag     int    `json:"lag"`
	NObs    int    `json:"n_obs"`
	FStat   number `json:"f_stat"`
	DFNum   int    `json:"df_num"`
	DFDenom int    `json:"df_denom"`
	PValue  number `json:"p_value"`
}

type runJSON struct {
	Regression regressionJSON `json:"regression"`
	Granger    *grangerJSON   `json:"granger,omitempty"`
}

func encodeRun(reg *domain.RegressionResult, g *domain.GrangerResult) runJSON {
	out := runJSON{Regression: regressionJSON{
		RunID:        reg.RunID,
		Target:       reg.Target,
		Terms:        make([]termJSON, len(reg.Terms)),
		NObs:         reg.NObs,
		DFResid:      reg.DFResid,
		DFModel:      reg.DFModel,
		RSquared:     toNumber(reg.RSquared),
		AdjRSquared:  toNumber(reg.AdjRSquared),
		FStatistic:   toNumber(reg.FStatistic),
		FPValue:      toNumber(reg.FPValue),
		LogLik:       toNumber(reg.LogLik),
		AIC:          toNumber(reg.AIC),
		BIC:          toNumber(reg.BIC),
		DurbinWatson: toNumber(reg.DurbinWatson),
		FittedAt:     reg.FittedAt.UTC(),
	}}
	for i, t := range reg.Terms {
		out.Regression.Terms[i] = termJSON{
			Name:        t.Name,
			Coefficient: toNumber(t.Coefficient),
			StdError:    toNumber(t.StdError),
			TStat:       toNumber(t.TStat),
			PValue:      toNumber(t.PValue),
		}
	}
	if g != nil {
		out.Granger = &grangerJSON{
			Cause:   g.Cause,
			Effect:  g.Effect,
			Shift:   g.Shift,
			Lag:     g.Lag,
			NObs:    g.NObs,
			FStat:   toNumber(g.FStat),
			DFNum:   g.DFNum,
			DFDenom: g.DFDenom,
			PValue:  toNumber(g.PValue),
		}
	}
	return out
}

func (r runJSON) decode() (*domain.RegressionResult, *domain.GrangerResult) {
	in := r.Regression
	reg := &domain.RegressionResult{
		RunID:        in.RunID,
		Target:       in.Target,
		Terms:        make([]domain.RegressionTerm, len(in.Terms)),
		NObs:         in.NObs,
		DFResid:      in.DFResid,
		DFModel:      in.DFModel,
		RSquared:     fromNumber(in.RSquared),
		AdjRSquared:  fromNumber(in.AdjRSquared),
		FStatistic:   fromNumber(in.FStatistic),
		FPValue:      fromNumber(in.FPValue),
		LogLik:       fromNumber(in.LogLik),
		AIC:          fromNumber(in.AIC),
		BIC:          fromNumber(in.BIC),
		DurbinWatson: fromNumber(in.DurbinWatson),
		FittedAt:     in.FittedAt.UTC(),
	}
	for i, t := range in.Terms {
		reg.Terms[i] = domain.RegressionTerm{
			Name:        t.Name,
			Coefficient: fromNumber(t.Coefficient),
			StdError:    fromNumber(t.StdError),
			TStat:       fromNumber(t.TStat),
			PValue:      fromNumber(t.PValue),
		}
	}
	var g *domain.GrangerResult
	if r.Granger != nil {
		g = &domain.GrangerResult{
			Cause:   r.Granger.Cause,
			Effect:  r.Granger.Effect,
			Shift:   r.Granger.Shift,
			Lag:     r.Granger.Lag,
			NObs:    r.Granger.NObs,
			FStat:   fromNumber(r.Granger.FStat),
			DFNum:   r.Granger.DFNum,
			DFDenom: r.Granger.DFDenom,
			PValue:  fromNumber(r.Granger.PValue),
		}
	}
	return reg, g
}

// Replace overwrites the file with the run.
func (s *ResultStore) Replace(_ context.Context, reg *domain.RegressionResult, granger *domain.GrangerResult) error {
	if err := storage.ValidateResult(reg); err != nil {
		return err
	}
	data, err := json.MarshalIndent(encodeRun(reg, granger), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal regression: %w", err)
	}
	if err := writeAtomic(s.path, append(data, '\n')); err != nil {
		return fmt.Errorf("write regression: %w", err)
	}
	return nil
}

// Load reads the file.
func (s *ResultStore) Load(_ context.Context) (*domain.RegressionResult, *domain.GrangerResult, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read regression: %w", err)
	}
	var run runJSON
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, nil, fmt.Errorf("decode regression %s: %w", s.path, err)
	}
	reg, g := run.decode()
	return reg, g, nil
}

// Exists reports whether the file is present.
func (s *ResultStore) Exists(_ context.Context) (bool, error) {
	return exists(s.path)
}
