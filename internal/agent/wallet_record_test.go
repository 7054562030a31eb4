package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletroast/walletroast/internal/models"
	"github.com/walletroast/walletroast/internal/rpc"
)

const (
	wallet   = "0x2222222222222222222222222222222222222222"
	mystery  = "0x3333333333333333333333333333333333333333"
	leftover = "0x4444444444444444444444444444444444444444"

	recordJSON = `{"alias":"The Frog Whisperer","degenLevel":"CLEAN","degenScore":0,"charges":["Possession of a honeypot"],"priors":[],"verdict":"Guilty of optimism","advice":"Read contracts"}`
)

func intPtr(i int) *int { return &i }

func walletHarness(t *testing.T) *harness {
	t.Helper()

	h := newHarness(t, recordJSON)
	h.holdings.balances = []rpc.TokenBalance{
		{ContractAddress: "0x5555555555555555555555555555555555555555", TokenBalance: rpc.ZeroBalance},
		{ContractAddress: pepe, TokenBalance: "0x0de0b6b3a7640000"},
		{ContractAddress: trap, TokenBalance: "0x64"},
		{ContractAddress: mystery, TokenBalance: "0x01"},
		{ContractAddress: leftover, TokenBalance: "0x02"},
	}
	h.holdings.metadata[pepe] = &rpc.TokenMetadata{Name: "Pepe Token", Symbol: "PEPE", Decimals: intPtr(18)}
	h.holdings.metadata[trap] = &rpc.TokenMetadata{Name: "Trap", Symbol: "TRAP", Decimals: intPtr(0)}
	h.facts.records[pepe] = cleanRecord("Pepe", "PEPE")
	h.facts.records[trap] = honeypotRecord()
	return h
}

func TestWalletProfile(t *testing.T) {
	h := walletHarness(t)

	profile, err := h.agent.WalletProfile(context.Background(), models.WalletRequest{WalletAddress: wallet})
	require.NoError(t, err)

	// zero balance dropped, cap of 3 applied in provider order
	require.Len(t, profile.Tokens, 3)
	assert.Equal(t, pepe, profile.Tokens[0].Address)
	assert.Equal(t, trap, profile.Tokens[1].Address)
	assert.Equal(t, mystery, profile.Tokens[2].Address)

	require.Len(t, h.facts.calls, 1)
	assert.Equal(t, []string{pepe, trap, mystery}, h.facts.calls[0])

	clean := profile.Tokens[0]
	assert.Equal(t, "Pepe", clean.Name)
	assert.Equal(t, "1", clean.Balance)
	assert.Equal(t, models.LookupOK, clean.SecurityStatus)
	assert.Equal(t, models.VerdictSafe, clean.Verdict)

	scam := profile.Tokens[1]
	assert.Equal(t, models.VerdictScam, scam.Verdict)
	assert.Equal(t, "100", scam.Balance)

	unknown := profile.Tokens[2]
	assert.Equal(t, models.LookupUnavailable, unknown.MetadataStatus)
	assert.Equal(t, models.LookupNoData, unknown.SecurityStatus)
	assert.Equal(t, "???", unknown.Symbol)

	assert.Equal(t, models.WalletStats{TotalTokens: 3, Honeypots: 1, Risky: 1, Scams: 1, Unscanned: 1}, profile.Stats)
	assert.Equal(t, models.DegenWanted, profile.DegenLevel)
	// mean of 0 and 65, rounded
	assert.Equal(t, 33, profile.DegenScore)

	assert.Equal(t, "The Frog Whisperer", profile.Record.Alias)
	assert.Equal(t, []string{}, profile.Record.Priors)
}

func TestWalletProfile_FactsUnavailable(t *testing.T) {
	h := walletHarness(t)
	h.facts.err = errors.New("GoPlus API error 500")

	profile, err := h.agent.WalletProfile(context.Background(), models.WalletRequest{WalletAddress: wallet})
	require.NoError(t, err)

	for _, token := range profile.Tokens {
		assert.Equal(t, models.LookupUnavailable, token.SecurityStatus)
		assert.Empty(t, token.Verdict)
	}
	assert.Equal(t, 3, profile.Stats.Unscanned)
	assert.Equal(t, models.DegenClean, profile.DegenLevel)
	assert.Equal(t, 0, profile.DegenScore)
}

func TestWalletProfile_EmptyWallet(t *testing.T) {
	h := newHarness(t, recordJSON)

	profile, err := h.agent.WalletProfile(context.Background(), models.WalletRequest{WalletAddress: wallet})
	require.NoError(t, err)

	assert.Empty(t, profile.Tokens)
	assert.Equal(t, models.DegenClean, profile.DegenLevel)
	assert.Empty(t, h.facts.calls)
}

func TestWalletProfile_HoldingsRequired(t *testing.T) {
	h := walletHarness(t)
	h.holdings.balancesErr = errors.New("alchemy 503")

	profile, err := h.agent.WalletProfile(context.Background(), models.WalletRequest{WalletAddress: wallet})
	require.Error(t, err)
	assert.Nil(t, profile)
	assert.True(t, models.IsKind(err, models.KindUpstreamUnavailable))
	assert.Equal(t, 0, h.model.calls)
}

func TestWalletProfile_MalformedRecord(t *testing.T) {
	h := walletHarness(t)
	h.model.responses = []string{`{"alias":""}`}

	profile, err := h.agent.WalletProfile(context.Background(), models.WalletRequest{WalletAddress: wallet})
	require.Error(t, err)
	assert.Nil(t, profile)
	assert.True(t, models.IsKind(err, models.KindGenerationParse))
}

func TestWalletProfile_InvalidAddress(t *testing.T) {
	h := walletHarness(t)

	_, err := h.agent.WalletProfile(context.Background(), models.WalletRequest{WalletAddress: "vitalik.eth"})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindInvalidInput))
}
