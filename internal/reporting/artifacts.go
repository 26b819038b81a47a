package reporting

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"altcoin-leadlag/internal/storage/file"
)

// Run artifact file names inside the results directory.
const (
	ReportFile       = "REPORT.md"
	CoefficientsFile = "coefficients.csv"
	SummaryFile      = "regression_summary.txt"
	CorrelationFile  = "correlation_matrix.csv"
	RollingFile      = "rolling_correlation.csv"
	FactorsFile      = "factors.csv"
)

// WriteText writes content to path atomically, creating parent directories.
func WriteText(path, content string) error {
	if err := file.WriteFile(path, func(buf *bytes.Buffer) error {
		_, err := buf.WriteString(content)
		return err
	}); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteArtifacts generates the report and writes every run artifact into dir.
// Model artifacts are skipped when no model run is stored. Returns the written paths.
func (g *Generator) WriteArtifacts(ctx context.Context, dir string, opts Options) (*Report, []string, error) {
	r, factorRows, err := g.build(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	var written []string
	write := func(name, content string) error {
		path := filepath.Join(dir, name)
		if err := WriteText(path, content); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	if err := write(ReportFile, RenderMarkdown(r)); err != nil {
		return nil, nil, err
	}

	factorsPath := filepath.Join(dir, FactorsFile)
	if err := file.WriteFile(factorsPath, func(buf *bytes.Buffer) error {
		return file.WriteFactorsCSV(buf, factorRows)
	}); err != nil {
		return nil, nil, fmt.Errorf("write %s: %w", factorsPath, err)
	}
	written = append(written, factorsPath)

	if r.Regression != nil {
		coef, err := RenderCoefficientsCSV(r.Regression)
		if err != nil {
			return nil, nil, err
		}
		if err := write(CoefficientsFile, coef); err != nil {
			return nil, nil, err
		}
		if err := write(SummaryFile, RenderRegressionSummary(r.Regression, r.Granger)); err != nil {
			return nil, nil, err
		}
	}

	if r.Correlations != nil {
		corr, err := RenderCorrelationCSV(r.Correlations)
		if err != nil {
			return nil, nil, err
		}
		if err := write(CorrelationFile, corr); err != nil {
			return nil, nil, err
		}
	}

	if r.RollingSeries != nil {
		rolling, err := RenderRollingCSV(r.RollingSeries, opts.RollingA, opts.RollingB)
		if err != nil {
			return nil, nil, err
		}
		if err := write(RollingFile, rolling); err != nil {
			return nil, nil, err
		}
	}

	return r, written, nil
}
