package agent

import (
	"context"
	"errors"

	"github.com/walletroast/walletroast/internal/logging"
	"github.com/walletroast/walletroast/internal/metrics"
	"github.com/walletroast/walletroast/internal/models"
	"github.com/walletroast/walletroast/internal/risk"
	"github.com/walletroast/walletroast/internal/rpc"
	txtools "github.com/walletroast/walletroast/internal/tools"
)

const walletPipeline = "criminal_record"

type walletState struct {
	wallet    string
	balances  []rpc.TokenBalance
	tokens    []models.WalletToken
	stats     models.WalletStats
	level     models.DegenLevel
	score     int
	narrative *txtools.RecordOutput
}

// WalletProfile builds the criminal record of a wallet from its non-zero
// ERC-20 holdings, capped at the configured maximum in provider order.
// Holdings are required; per-token metadata and security facts are not.
func (a *Agent) WalletProfile(ctx context.Context, req models.WalletRequest) (*models.WalletProfile, error) {
	wallet, err := models.NormalizeAddress("walletAddress", req.WalletAddress)
	if err != nil {
		return nil, err
	}

	state := &walletState{wallet: wallet}

	pipeline := txtools.NewPipeline[walletState](walletPipeline)
	stages := []txtools.Stage[walletState]{
		{
			Name:     "fetch_holdings",
			State:    txtools.StateFetchingHoldings,
			Required: true,
			Run: func(ctx context.Context, s *walletState) error {
				if a.holdings == nil {
					return models.NewUpstreamError("alchemy", errors.New("holdings lookup is not configured"))
				}
				balances, err := a.holdings.GetTokenBalances(ctx, s.wallet)
				if err != nil {
					return models.NewUpstreamError("alchemy", err)
				}
				s.balances = a.heldTokens(balances)
				return nil
			},
		},
		{
			Name:         "fetch_metadata",
			State:        txtools.StateFetchingMetadata,
			Dependencies: []string{"fetch_holdings"},
			Run: func(ctx context.Context, s *walletState) error {
				enricher := txtools.NewTokenMetadataEnricher(a.holdings, a.metadataConcurrency)
				s.tokens = enricher.Enrich(ctx, s.balances)
				return nil
			},
		},
		{
			Name:         "fetch_facts",
			State:        txtools.StateFetchingFacts,
			Dependencies: []string{"fetch_metadata"},
			Run: func(ctx context.Context, s *walletState) error {
				return a.attachFacts(ctx, s.tokens)
			},
			Degrade: func(s *walletState, err error) {
				for i := range s.tokens {
					s.tokens[i].SecurityStatus = models.LookupUnavailable
				}
			},
		},
		{
			Name:         "classify",
			State:        txtools.StateClassifying,
			Dependencies: []string{"fetch_facts"},
			Required:     true,
			Run: func(ctx context.Context, s *walletState) error {
				for i := range s.tokens {
					if !s.tokens[i].Scanned() {
						continue
					}
					assessment := risk.Assess(s.tokens[i].Facts)
					s.tokens[i].Verdict = assessment.Verdict
					s.tokens[i].RiskScore = assessment.Score
				}
				s.stats = risk.WalletStats(s.tokens)
				s.level = risk.DegenLevel(s.stats)
				s.score = risk.DegenScore(s.tokens)
				return nil
			},
		},
		{
			Name:         "generate_narrative",
			State:        txtools.StateGeneratingNarrative,
			Dependencies: []string{"classify"},
			Required:     true,
			Run: func(ctx context.Context, s *walletState) error {
				out, err := a.generator.CriminalRecord(ctx, txtools.RecordInput{
					Wallet: s.wallet,
					Tokens: s.tokens,
					Stats:  s.stats,
					Level:  s.level,
					Score:  s.score,
				})
				if err != nil {
					return err
				}
				s.narrative = out
				return nil
			},
		},
	}
	for _, stage := range stages {
		if err := pipeline.AddStage(stage); err != nil {
			return nil, err
		}
	}

	if err := pipeline.Execute(ctx, state); err != nil {
		return nil, err
	}

	metrics.VerdictsTotal.WithLabelValues(walletPipeline, string(state.level)).Inc()
	logging.L(ctx).Info().
		Str("wallet", wallet).
		Int("tokens", state.stats.TotalTokens).
		Int("unscanned", state.stats.Unscanned).
		Str("degen_level", string(state.level)).
		Msg("criminal record built")

	return &models.WalletProfile{
		Address:    wallet,
		Tokens:     state.tokens,
		Stats:      state.stats,
		DegenLevel: state.level,
		DegenScore: state.score,
		Record:     state.narrative.Record(),
	}, nil
}

// heldTokens drops empty balances and applies the token cap
func (a *Agent) heldTokens(balances []rpc.TokenBalance) []rpc.TokenBalance {
	held := make([]rpc.TokenBalance, 0, len(balances))
	for _, b := range balances {
		if b.IsZero() {
			continue
		}
		held = append(held, b)
		if len(held) == a.maxWalletTokens {
			break
		}
	}
	return held
}

// attachFacts fetches security facts for all tokens in one batch. Tokens
// the provider does not know are marked NO_DATA.
func (a *Agent) attachFacts(ctx context.Context, tokens []models.WalletToken) error {
	if len(tokens) == 0 {
		return nil
	}

	addresses := make([]string, len(tokens))
	for i, t := range tokens {
		addresses[i] = t.Address
	}

	records, err := a.facts.TokenSecurity(ctx, addresses)
	if err != nil {
		return models.NewUpstreamError("goplus", err)
	}

	for i := range tokens {
		facts, err := a.normalizer.Normalize(records, tokens[i].Address)
		if err != nil {
			tokens[i].SecurityStatus = models.LookupNoData
			continue
		}
		tokens[i].SecurityStatus = models.LookupOK
		tokens[i].Facts = facts
		if facts.TokenName != nil && *facts.TokenName != "" {
			tokens[i].Name = *facts.TokenName
		}
		if facts.TokenSymbol != nil && *facts.TokenSymbol != "" {
			tokens[i].Symbol = *facts.TokenSymbol
		}
	}
	return nil
}
