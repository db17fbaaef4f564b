package ingest

import (
	"context"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Load opens the source, picks the parser by file extension (.xlsx, otherwise
// CSV), and returns the usable bundles. Rejected rows are logged and counted,
// not fatal; an unreadable source or missing cnpj column is.
func Load(ctx context.Context, source string) ([]model.SignalBundle, error) {
	rc, err := Open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", source)
	}

	var (
		bundles []model.SignalBundle
		rowErrs []RowError
	)
	if strings.HasSuffix(strings.ToLower(source), ".xlsx") {
		bundles, rowErrs, err = ParseXLSX(data)
	} else {
		bundles, rowErrs, err = ParseCSV(strings.NewReader(string(data)))
	}
	if err != nil {
		return nil, err
	}

	for _, re := range rowErrs {
		zap.L().Warn("ingest: row rejected",
			zap.String("source", source),
			zap.Int("line", re.Line),
			zap.Error(re.Err),
		)
	}
	zap.L().Info("ingest: source loaded",
		zap.String("source", source),
		zap.Int("accepted", len(bundles)),
		zap.Int("rejected", len(rowErrs)),
	)
	return bundles, nil
}
