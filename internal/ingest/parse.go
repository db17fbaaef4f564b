package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/ptext"
	"github.com/sells-group/prospect-cli/pkg/cnpj"
)

// RowError reports one rejected row. Line is 1-based and counts the header.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("linha %d: %v", e.Line, e.Err)
}

// columnAliases maps folded header names to canonical columns. Lists exported
// from ERPs and CRMs disagree on naming, so each column accepts several.
var columnAliases = map[string]string{
	"cnpj":           "cnpj",
	"nome":           "name",
	"razao social":   "name",
	"nome fantasia":  "name",
	"porte":          "porte",
	"capital":        "capital",
	"capital social": "capital",
	"setor":          "industry",
	"industria":      "industry",
	"cnae":           "industry",
	"municipio":      "region",
	"cidade":         "region",
	"uf":             "region",
	"tech stack":     "tech_stack",
	"tech_stack":     "tech_stack",
	"tecnologias":    "tech_stack",
	"stack":          "tech_stack",
	"funcionarios":   "employees",
	"colaboradores":  "employees",
	"site":           "website",
	"website":        "website",
	"url":            "website",
}

// ParseCSV reads a header-mapped CSV of prospects. Rows with an invalid CNPJ
// or no usable columns are skipped and reported, not fatal.
func ParseCSV(r io.Reader) ([]model.SignalBundle, []RowError, error) {
	buf := bufio.NewReader(r)
	reader := csv.NewReader(buf)
	reader.FieldsPerRecord = -1
	reader.Comma = detectDelimiter(buf)

	header, err := reader.Read()
	if err != nil {
		return nil, nil, eris.Wrap(err, "ingest: read csv header")
	}
	columns := mapColumns(header)
	if _, ok := columns["cnpj"]; !ok {
		return nil, nil, eris.New("ingest: csv has no cnpj column")
	}

	var (
		bundles []model.SignalBundle
		rowErrs []RowError
	)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		bundle, err := bundleFromRecord(columns, record)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		bundles = append(bundles, bundle)
	}
	return bundles, rowErrs, nil
}

// ParseXLSX reads the first sheet of an XLSX workbook with the same header
// mapping as ParseCSV.
func ParseXLSX(data []byte) ([]model.SignalBundle, []RowError, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, nil, eris.Wrap(err, "ingest: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, nil, eris.New("ingest: xlsx has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, nil, eris.New("ingest: xlsx sheet is empty")
	}

	columns := mapColumns(rowToStrings(sheet.Rows[0]))
	if _, ok := columns["cnpj"]; !ok {
		return nil, nil, eris.New("ingest: xlsx has no cnpj column")
	}

	var (
		bundles []model.SignalBundle
		rowErrs []RowError
	)
	for i, row := range sheet.Rows[1:] {
		record := rowToStrings(row)
		if emptyRecord(record) {
			continue
		}
		bundle, err := bundleFromRecord(columns, record)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: i + 2, Err: err})
			continue
		}
		bundles = append(bundles, bundle)
	}
	return bundles, rowErrs, nil
}

func rowToStrings(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		out[i] = cell.String()
	}
	return out
}

func emptyRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// mapColumns resolves each header cell to a canonical column index.
func mapColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		name, ok := columnAliases[ptext.Fold(strings.TrimSpace(h))]
		if !ok {
			continue
		}
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	return columns
}

func bundleFromRecord(columns map[string]int, record []string) (model.SignalBundle, error) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	number, err := cnpj.Normalize(field("cnpj"))
	if err != nil {
		return model.SignalBundle{}, err
	}

	bundle := model.SignalBundle{
		CompanyID:  number,
		Name:       field("name"),
		Porte:      strings.ToUpper(field("porte")),
		Industry:   field("industry"),
		Region:     field("region"),
		WebsiteURL: field("website"),
	}

	if raw := field("capital"); raw != "" {
		capital, err := parseBRLNumber(raw)
		if err != nil {
			return model.SignalBundle{}, eris.Wrapf(err, "capital %q", raw)
		}
		bundle.Capital = &capital
	}
	if raw := field("employees"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return model.SignalBundle{}, eris.Wrapf(err, "funcionarios %q", raw)
		}
		bundle.EmployeeCount = &n
	}
	if raw := field("tech_stack"); raw != "" {
		for _, item := range strings.Split(raw, ";") {
			if item = strings.TrimSpace(item); item != "" {
				bundle.TechStack = append(bundle.TechStack, item)
			}
		}
	}
	return bundle, nil
}

// parseBRLNumber accepts both "1234567.89" and the Brazilian "1.234.567,89".
func parseBRLNumber(raw string) (float64, error) {
	s := strings.TrimSpace(strings.TrimPrefix(raw, "R$"))
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, eris.Wrap(err, "parse number")
}

// detectDelimiter peeks at the first line to pick between comma and the
// semicolon most Brazilian tool exports use.
func detectDelimiter(buf *bufio.Reader) rune {
	peeked, _ := buf.Peek(4096)
	line := string(peeked)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}
