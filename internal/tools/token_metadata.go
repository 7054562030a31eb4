package tools

import (
	"context"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/walletroast/walletroast/internal/logging"
	"github.com/walletroast/walletroast/internal/models"
	"github.com/walletroast/walletroast/internal/rpc"
)

const (
	unknownTokenName   = "Unknown"
	unknownTokenSymbol = "???"
)

// TokenMetadataSource fetches ERC-20 metadata for one contract
type TokenMetadataSource interface {
	GetTokenMetadata(ctx context.Context, contract string) (*rpc.TokenMetadata, error)
}

// TokenMetadataEnricher turns wallet balances into WalletTokens carrying
// name, symbol and a human readable balance
type TokenMetadataEnricher struct {
	source      TokenMetadataSource
	concurrency int
}

// NewTokenMetadataEnricher creates an enricher issuing at most concurrency
// lookups at a time
func NewTokenMetadataEnricher(source TokenMetadataSource, concurrency int) *TokenMetadataEnricher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &TokenMetadataEnricher{
		source:      source,
		concurrency: concurrency,
	}
}

// Enrich looks up metadata for every balance. A failed lookup never fails
// the batch: the token keeps placeholder names and an UNAVAILABLE status.
// Output order matches input order. Goroutines only report an error once
// the request context is done, and then the remaining tokens stay placeholders.
func (t *TokenMetadataEnricher) Enrich(ctx context.Context, balances []rpc.TokenBalance) []models.WalletToken {
	tokens := make([]models.WalletToken, len(balances))

	var g errgroup.Group
	g.SetLimit(t.concurrency)

	for i, balance := range balances {
		tokens[i] = placeholderToken(balance)
		if t.source == nil {
			continue
		}

		g.Go(func() error {
			meta, err := t.source.GetTokenMetadata(ctx, balance.ContractAddress)
			if err != nil {
				logging.L(ctx).Debug().Err(err).Str("token", balance.ContractAddress).Msg("token metadata unavailable")
				return ctx.Err()
			}
			tokens[i] = tokenWithMetadata(balance, meta)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logging.L(ctx).Warn().Err(err).Int("tokens", len(balances)).Msg("metadata lookups interrupted")
	}
	return tokens
}

func placeholderToken(balance rpc.TokenBalance) models.WalletToken {
	return models.WalletToken{
		Address:        strings.ToLower(balance.ContractAddress),
		Name:           unknownTokenName,
		Symbol:         unknownTokenSymbol,
		Balance:        FormatBalance(balance.TokenBalance, nil),
		MetadataStatus: models.LookupUnavailable,
		SecurityStatus: models.LookupUnavailable,
	}
}

func tokenWithMetadata(balance rpc.TokenBalance, meta *rpc.TokenMetadata) models.WalletToken {
	token := placeholderToken(balance)
	if meta == nil {
		token.MetadataStatus = models.LookupNoData
		return token
	}

	token.MetadataStatus = models.LookupOK
	if name := strings.TrimSpace(meta.Name); name != "" {
		token.Name = name
	}
	if symbol := strings.TrimSpace(meta.Symbol); symbol != "" {
		token.Symbol = symbol
	}
	token.Balance = FormatBalance(balance.TokenBalance, meta.Decimals)
	return token
}

// FormatBalance renders a hex token balance as a decimal string, scaled by
// decimals when known. Unparseable input is returned unchanged.
func FormatBalance(hexBalance string, decimals *int) string {
	s := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(hexBalance), "0x"), "0X")
	if s == "" {
		return "0"
	}
	raw, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return hexBalance
	}
	if decimals == nil || *decimals <= 0 {
		return raw.String()
	}
	return decimal.NewFromBigInt(raw, -int32(*decimals)).String()
}
