// Package cnpj provides a client for the BrasilAPI company registry lookup.
package cnpj

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://brasilapi.com.br/api/cnpj/v1"

// Client performs registry lookups by CNPJ.
type Client interface {
	Lookup(ctx context.Context, cnpj string) (*Company, error)
}

// Partner is one registered partner/owner of the company.
type Partner struct {
	Name          string `json:"nome_socio"`
	Qualification string `json:"qualificacao_socio"`
}

// Company is the registry record for a CNPJ.
type Company struct {
	CNPJ               string    `json:"cnpj"`
	LegalName          string    `json:"razao_social"`
	TradeName          string    `json:"nome_fantasia"`
	Porte              string    `json:"porte"`
	CapitalSocial      float64   `json:"capital_social"`
	CNAEFiscal         int       `json:"cnae_fiscal"`
	CNAEDescription    string    `json:"cnae_fiscal_descricao"`
	UF                 string    `json:"uf"`
	Municipality       string    `json:"municipio"`
	RegistrationStatus string    `json:"descricao_situacao_cadastral"`
	OpenedAt           string    `json:"data_inicio_atividade"`
	Partners           []Partner `json:"qsa"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a BrasilAPI CNPJ client. The endpoint is unauthenticated.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// StatusError carries the HTTP status of a failed lookup.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return "cnpj: unexpected status " + http.StatusText(e.Status)
}

func (c *httpClient) Lookup(ctx context.Context, cnpj string) (*Company, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+cnpj, nil)
	if err != nil {
		return nil, eris.Wrap(err, "cnpj: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "cnpj: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "cnpj: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var company Company
	if err := json.Unmarshal(respBody, &company); err != nil {
		return nil, eris.Wrap(err, "cnpj: unmarshal response")
	}

	return &company, nil
}
