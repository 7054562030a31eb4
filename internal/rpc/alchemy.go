package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ZeroBalance is how Alchemy reports an empty token balance
const ZeroBalance = "0x0000000000000000000000000000000000000000000000000000000000000000"

// SimulationRequest is the transaction to dry-run
type SimulationRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value,omitempty"`
	Data  string `json:"data,omitempty"`
}

// RawAssetChange is one entry of alchemy_simulateAssetChanges
type RawAssetChange struct {
	AssetType       string `json:"assetType"`
	ChangeType      string `json:"changeType"`
	From            string `json:"from"`
	To              string `json:"to"`
	RawAmount       string `json:"rawAmount"`
	ContractAddress string `json:"contractAddress"`
	TokenID         string `json:"tokenId,omitempty"`
	Decimals        int    `json:"decimals"`
	Symbol          string `json:"symbol"`
	Name            string `json:"name"`
	Amount          string `json:"amount"`
}

// SimulationResult is the raw alchemy_simulateAssetChanges payload
type SimulationResult struct {
	Changes []RawAssetChange `json:"changes"`
	GasUsed string           `json:"gasUsed,omitempty"`
	Error   json.RawMessage  `json:"error,omitempty"`
}

// ErrorMessage returns the simulation's own error, "" when it ran cleanly.
// Alchemy reports it either as a string or as an object with a message.
func (r *SimulationResult) ErrorMessage() string {
	if r == nil || len(r.Error) == 0 || string(r.Error) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Error, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.Error, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(r.Error)
}

// TokenBalance is one entry of alchemy_getTokenBalances
type TokenBalance struct {
	ContractAddress string  `json:"contractAddress"`
	TokenBalance    string  `json:"tokenBalance"`
	Error           *string `json:"error,omitempty"`
}

// IsZero reports an empty or errored balance entry
func (b TokenBalance) IsZero() bool {
	if b.Error != nil && *b.Error != "" {
		return true
	}
	trimmed := strings.TrimLeft(strings.TrimPrefix(strings.ToLower(b.TokenBalance), "0x"), "0")
	return b.TokenBalance == ZeroBalance || trimmed == ""
}

type tokenBalancesResult struct {
	Address       string         `json:"address"`
	TokenBalances []TokenBalance `json:"tokenBalances"`
}

// TokenMetadata is the alchemy_getTokenMetadata payload
type TokenMetadata struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals *int   `json:"decimals"`
	Logo     string `json:"logo,omitempty"`
}

// SimulateAssetChanges dry-runs a transaction and returns the predicted asset changes
func (c *Client) SimulateAssetChanges(ctx context.Context, req SimulationRequest) (*SimulationResult, error) {
	result, err := c.call(ctx, "alchemy_simulateAssetChanges", []interface{}{req})
	if err != nil {
		return nil, err
	}

	var sim SimulationResult
	if err := json.Unmarshal(result, &sim); err != nil {
		return nil, fmt.Errorf("failed to unmarshal simulation: %w", err)
	}
	return &sim, nil
}

// GetTokenBalances lists the ERC-20 balances held by wallet, in provider order
func (c *Client) GetTokenBalances(ctx context.Context, wallet string) ([]TokenBalance, error) {
	result, err := c.call(ctx, "alchemy_getTokenBalances", []interface{}{wallet, "erc20"})
	if err != nil {
		return nil, err
	}

	var balances tokenBalancesResult
	if err := json.Unmarshal(result, &balances); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token balances: %w", err)
	}
	return balances.TokenBalances, nil
}

// GetTokenMetadata fetches name, symbol and decimals for a token contract
func (c *Client) GetTokenMetadata(ctx context.Context, contract string) (*TokenMetadata, error) {
	result, err := c.call(ctx, "alchemy_getTokenMetadata", []interface{}{contract})
	if err != nil {
		return nil, err
	}

	var meta TokenMetadata
	if err := json.Unmarshal(result, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token metadata: %w", err)
	}
	return &meta, nil
}
