package cnpj

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/12345678000190", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"cnpj": "12345678000190",
			"razao_social": "METALURGICA AURORA LTDA",
			"nome_fantasia": "Aurora",
			"porte": "MEDIA",
			"capital_social": 2500000,
			"cnae_fiscal": 2511000,
			"cnae_fiscal_descricao": "Fabricacao de estruturas metalicas",
			"uf": "SC",
			"municipio": "Joinville",
			"descricao_situacao_cadastral": "ATIVA",
			"qsa": [{"nome_socio": "JOAO DA SILVA", "qualificacao_socio": "Socio-Administrador"}]
		}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	company, err := client.Lookup(context.Background(), "12345678000190")

	require.NoError(t, err)
	assert.Equal(t, "METALURGICA AURORA LTDA", company.LegalName)
	assert.Equal(t, "MEDIA", company.Porte)
	assert.Equal(t, "ATIVA", company.RegistrationStatus)
	assert.InDelta(t, 2500000, company.CapitalSocial, 0.01)
	require.Len(t, company.Partners, 1)
}

func TestLookup_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"CNPJ nao encontrado"}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Lookup(context.Background(), "00000000000000")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Status)
}
