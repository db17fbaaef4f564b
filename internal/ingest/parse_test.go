package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

const sampleCSV = `cnpj,razao social,porte,capital social,municipio,tech stack,funcionarios,site
11.222.333/0001-81,Metalurgica Andrade,media,"1.250.000,00",Joinville,SAP;WMS,180,https://andrade.com.br
19131243000197,Instituto Aberto,ME,50000.50,Sao Paulo,,12,
`

func TestParseCSV(t *testing.T) {
	bundles, rowErrs, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, bundles, 2)

	b := bundles[0]
	assert.Equal(t, "11222333000181", b.CompanyID)
	assert.Equal(t, "Metalurgica Andrade", b.Name)
	assert.Equal(t, "MEDIA", b.Porte)
	require.NotNil(t, b.Capital)
	assert.InDelta(t, 1_250_000.0, *b.Capital, 0.001)
	assert.Equal(t, "Joinville", b.Region)
	assert.Equal(t, []string{"SAP", "WMS"}, b.TechStack)
	require.NotNil(t, b.EmployeeCount)
	assert.Equal(t, 180, *b.EmployeeCount)
	assert.Equal(t, "https://andrade.com.br", b.WebsiteURL)

	assert.Equal(t, "19131243000197", bundles[1].CompanyID)
	require.NotNil(t, bundles[1].Capital)
	assert.InDelta(t, 50_000.50, *bundles[1].Capital, 0.001)
	assert.Nil(t, bundles[1].TechStack)
}

func TestParseCSVSemicolonDelimiter(t *testing.T) {
	in := "cnpj;nome;porte\n11222333000181;Andrade;EPP\n"
	bundles, rowErrs, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, bundles, 1)
	assert.Equal(t, "Andrade", bundles[0].Name)
	assert.Equal(t, "EPP", bundles[0].Porte)
}

func TestParseCSVRejectsBadRowsKeepsGood(t *testing.T) {
	in := strings.Join([]string{
		"cnpj,nome",
		"11222333000181,Boa",
		"11222333000199,Digito Errado", // bad check digit
		"19131243000197,Tambem Boa",
	}, "\n")

	bundles, rowErrs, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, bundles, 2)
	require.Len(t, rowErrs, 1)
	assert.Equal(t, 3, rowErrs[0].Line)
	assert.Contains(t, rowErrs[0].Error(), "linha 3")
}

func TestParseCSVRequiresCNPJColumn(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader("nome,porte\nAndrade,ME\n"))
	assert.ErrorContains(t, err, "cnpj column")
}

func TestParseXLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("prospects")
	require.NoError(t, err)

	addRow := func(cells ...string) {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}
	addRow("CNPJ", "Nome Fantasia", "Porte", "Capital")
	addRow("11.222.333/0001-81", "Metalurgica Andrade", "GRANDE", "2500000")
	addRow("invalida", "Linha Quebrada", "", "")
	addRow() // blank rows are silently skipped

	path := filepath.Join(t.TempDir(), "prospects.xlsx")
	require.NoError(t, f.Save(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	bundles, rowErrs, err := ParseXLSX(data)
	require.NoError(t, err)
	require.Len(t, bundles, 1)
	require.Len(t, rowErrs, 1)

	assert.Equal(t, "11222333000181", bundles[0].CompanyID)
	assert.Equal(t, "Metalurgica Andrade", bundles[0].Name)
	assert.Equal(t, "GRANDE", bundles[0].Porte)
	require.NotNil(t, bundles[0].Capital)
	assert.InDelta(t, 2_500_000.0, *bundles[0].Capital, 0.001)
}

func TestParseBRLNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1234567.89", 1234567.89},
		{"1.234.567,89", 1234567.89},
		{"R$ 50.000,00", 50000},
		{"50000", 50000},
		{"0,5", 0.5},
	}
	for _, tt := range tests {
		got, err := parseBRLNumber(tt.in)
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 0.0001, tt.in)
	}

	_, err := parseBRLNumber("abc")
	assert.Error(t, err)
}
