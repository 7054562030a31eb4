package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/walletroast/walletroast/internal/rpc"
	txtools "github.com/walletroast/walletroast/internal/tools"
)

const (
	pepe   = "0x6982508145454ce325ddbe47a25d4ec3d2311933"
	trap   = "0x1111111111111111111111111111111111111111"
	sender = "0xd8da6bf26964af9d7eed9e03e53415d37aa96045"
)

type fakeFacts struct {
	mu      sync.Mutex
	records map[string]txtools.RawTokenSecurity
	err     error
	calls   [][]string
}

func (f *fakeFacts) TokenSecurity(ctx context.Context, addresses []string) (map[string]txtools.RawTokenSecurity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, addresses)
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]txtools.RawTokenSecurity)
	for _, addr := range addresses {
		if rec, ok := f.records[strings.ToLower(addr)]; ok {
			out[strings.ToLower(addr)] = rec
		}
	}
	return out, nil
}

type fakeSimulator struct {
	result *rpc.SimulationResult
	err    error
	calls  []rpc.SimulationRequest
}

func (f *fakeSimulator) SimulateAssetChanges(ctx context.Context, req rpc.SimulationRequest) (*rpc.SimulationResult, error) {
	f.calls = append(f.calls, req)
	return f.result, f.err
}

type fakeHoldings struct {
	balances    []rpc.TokenBalance
	balancesErr error
	metadata    map[string]*rpc.TokenMetadata
}

func (f *fakeHoldings) GetTokenBalances(ctx context.Context, wallet string) ([]rpc.TokenBalance, error) {
	return f.balances, f.balancesErr
}

func (f *fakeHoldings) GetTokenMetadata(ctx context.Context, contract string) (*rpc.TokenMetadata, error) {
	meta, ok := f.metadata[contract]
	if !ok {
		return nil, errors.New("metadata lookup failed")
	}
	return meta, nil
}

// stubModel returns one canned response per call
type stubModel struct {
	mu        sync.Mutex
	responses []string
	calls     int
	prompts   []string
}

func (m *stubModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls >= len(m.responses) {
		return nil, errors.New("no scripted response")
	}
	text := m.responses[m.calls]
	m.calls++
	m.prompts = append(m.prompts, lastText(messages))
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}, nil
}

func lastText(messages []llms.MessageContent) string {
	if len(messages) == 0 {
		return ""
	}
	var text string
	for _, part := range messages[len(messages)-1].Parts {
		if tc, ok := part.(llms.TextContent); ok {
			text += tc.Text
		}
	}
	return text
}

func (m *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

type harness struct {
	agent     *Agent
	facts     *fakeFacts
	simulator *fakeSimulator
	holdings  *fakeHoldings
	model     *stubModel
}

func newHarness(t *testing.T, responses ...string) *harness {
	t.Helper()

	h := &harness{
		facts:     &fakeFacts{records: map[string]txtools.RawTokenSecurity{}},
		simulator: &fakeSimulator{result: &rpc.SimulationResult{}},
		holdings:  &fakeHoldings{metadata: map[string]*rpc.TokenMetadata{}},
		model:     &stubModel{responses: responses},
	}

	agent, err := New(Options{
		Facts:               h.facts,
		Simulator:           h.simulator,
		Holdings:            h.holdings,
		Generator:           txtools.NewNarrativeGenerator(h.model, txtools.DefaultLLMRetryConfig()),
		MaxWalletTokens:     3,
		MetadataConcurrency: 2,
	})
	require.NoError(t, err)
	h.agent = agent
	return h
}

func cleanRecord(name, symbol string) txtools.RawTokenSecurity {
	return txtools.RawTokenSecurity{
		IsHoneypot:   "0",
		BuyTax:       "0",
		SellTax:      "0",
		IsOpenSource: "1",
		TokenName:    txtools.ProviderValue(name),
		TokenSymbol:  txtools.ProviderValue(symbol),
	}
}

func honeypotRecord() txtools.RawTokenSecurity {
	return txtools.RawTokenSecurity{
		IsHoneypot:   "1",
		SellTax:      "99",
		IsOpenSource: "1",
		TokenName:    "Trap",
		TokenSymbol:  "TRAP",
	}
}
