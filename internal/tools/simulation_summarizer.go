package tools

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/walletroast/walletroast/internal/models"
	"github.com/walletroast/walletroast/internal/rpc"
)

// NativeAsset is the asset id used for the chain's native coin
const NativeAsset = "native"

// unlimitedThreshold is 2^255. Approvals at or above it are treated as max-uint approvals.
var unlimitedThreshold = new(big.Int).Lsh(big.NewInt(1), 255)

// NotAttempted is the report for a simulation that was never run
func NotAttempted() models.SimulationReport {
	return models.SimulationReport{Status: models.SimulationNotAttempted, Changes: []models.AssetChange{}}
}

// SummarizeSimulation converts a simulation response, or the error of the
// call that should have produced it, into a report. It never fails: a call
// error or a simulation-level error becomes FAILED. Amounts are signed from
// sender's point of view, negative when the asset leaves sender.
func SummarizeSimulation(raw *rpc.SimulationResult, callErr error, sender string) models.SimulationReport {
	if callErr != nil {
		return failedReport(callErr.Error())
	}
	if raw == nil {
		return failedReport("empty simulation response")
	}
	if msg := raw.ErrorMessage(); msg != "" {
		return failedReport(msg)
	}

	changes := make([]models.AssetChange, 0, len(raw.Changes))
	for _, c := range raw.Changes {
		changes = append(changes, summarizeChange(c, sender))
	}
	return models.SimulationReport{Status: models.SimulationSucceeded, Changes: changes}
}

func failedReport(msg string) models.SimulationReport {
	return models.SimulationReport{Status: models.SimulationFailed, Changes: []models.AssetChange{}, Error: msg}
}

func summarizeChange(c rpc.RawAssetChange, sender string) models.AssetChange {
	change := models.AssetChange{
		Asset:     assetID(c),
		Symbol:    c.Symbol,
		Name:      c.Name,
		Direction: direction(c.ChangeType),
	}
	if change.Symbol == "" {
		change.Symbol = "???"
	}

	if change.Direction == models.DirectionApprove && isUnlimited(c) {
		change.Unlimited = true
		change.Amount = "unlimited"
		return change
	}

	amount := changeAmount(c)
	if change.Direction == models.DirectionTransfer && strings.EqualFold(c.From, sender) && !strings.EqualFold(c.To, sender) {
		amount = amount.Neg()
	}
	change.Amount = amount.String()
	return change
}

func assetID(c rpc.RawAssetChange) string {
	if strings.EqualFold(c.AssetType, "NATIVE") || c.ContractAddress == "" {
		return NativeAsset
	}
	return strings.ToLower(c.ContractAddress)
}

func direction(changeType string) models.Direction {
	return models.Direction(strings.ToUpper(strings.TrimSpace(changeType)))
}

// changeAmount prefers the provider's decimal amount and falls back to the
// raw integer amount scaled by decimals
func changeAmount(c rpc.RawAssetChange) decimal.Decimal {
	if d, err := decimal.NewFromString(strings.TrimSpace(c.Amount)); err == nil {
		return d.Abs()
	}
	if raw, ok := parseRawAmount(c.RawAmount); ok {
		return decimal.NewFromBigInt(raw, -int32(c.Decimals)).Abs()
	}
	return decimal.Zero
}

func isUnlimited(c rpc.RawAssetChange) bool {
	if strings.Contains(strings.ToLower(c.Amount), "unlimited") {
		return true
	}
	raw, ok := parseRawAmount(c.RawAmount)
	return ok && raw.Cmp(unlimitedThreshold) >= 0
}

func parseRawAmount(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return new(big.Int).SetString(s[2:], 16)
	}
	return new(big.Int).SetString(s, 10)
}
