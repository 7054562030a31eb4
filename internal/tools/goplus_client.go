package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/walletroast/walletroast/internal/metrics"
	"github.com/walletroast/walletroast/internal/tracing"
)

const goplusProvider = "goplus"

// ProviderValue is a scalar field GoPlus sends as a string, though some
// deployments send bare numbers. null and absent both decode to "".
type ProviderValue string

func (v *ProviderValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*v = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = ProviderValue(s)
		return nil
	}
	*v = ProviderValue(data)
	return nil
}

// RawTokenSecurity is one contract's record from the token_security endpoint
type RawTokenSecurity struct {
	IsHoneypot         ProviderValue `json:"is_honeypot"`
	BuyTax             ProviderValue `json:"buy_tax"`
	SellTax            ProviderValue `json:"sell_tax"`
	IsMintable         ProviderValue `json:"is_mintable"`
	HiddenOwner        ProviderValue `json:"hidden_owner"`
	OwnerChangeBalance ProviderValue `json:"owner_change_balance"`
	TransferPausable   ProviderValue `json:"transfer_pausable"`
	IsOpenSource       ProviderValue `json:"is_open_source"`
	TrustList          ProviderValue `json:"trust_list"`
	CannotSellAll      ProviderValue `json:"cannot_sell_all"`
	TokenName          ProviderValue `json:"token_name"`
	TokenSymbol        ProviderValue `json:"token_symbol"`
}

type goPlusResponse struct {
	Code    int                         `json:"code"`
	Message string                      `json:"message"`
	Result  map[string]RawTokenSecurity `json:"result"`
}

// GoPlusClient queries the GoPlus token security API
type GoPlusClient struct {
	baseURL    string
	chainID    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewGoPlusClient creates a client for one chain. timeout bounds each call.
func NewGoPlusClient(baseURL, chainID string, timeout time.Duration) *GoPlusClient {
	return &GoPlusClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		chainID:    chainID,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// TokenSecurity fetches security records for a batch of contracts. The
// result is keyed by lower-cased address; contracts GoPlus knows nothing
// about are simply absent.
func (c *GoPlusClient) TokenSecurity(ctx context.Context, addresses []string) (records map[string]RawTokenSecurity, err error) {
	start := time.Now()
	ctx, span := tracing.Tracer("goplus").Start(ctx, "token_security")
	span.SetAttributes(
		attribute.String("provider", goplusProvider),
		attribute.Int("goplus.addresses", len(addresses)),
	)
	defer func() {
		metrics.ObserveProviderCall(goplusProvider, "token_security", start, err)
		tracing.End(span, err)
	}()

	if len(addresses) == 0 {
		return map[string]RawTokenSecurity{}, nil
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/api/v1/token_security/%s?contract_addresses=%s",
		c.baseURL, url.PathEscape(c.chainID), url.QueryEscape(strings.Join(addresses, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token_security returned HTTP %d", resp.StatusCode)
	}

	var apiResp goPlusResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if apiResp.Code != 1 {
		return nil, fmt.Errorf("GoPlus API error %d: %s", apiResp.Code, apiResp.Message)
	}

	records = make(map[string]RawTokenSecurity, len(apiResp.Result))
	for addr, record := range apiResp.Result {
		records[strings.ToLower(addr)] = record
	}
	return records, nil
}
