package risk

import "github.com/walletroast/walletroast/internal/models"

// Component labels and caps. The caps sum to 100.
const (
	ComponentHoneypot  = "honeypot"
	ComponentTax       = "tax"
	ComponentOwnership = "ownership"

	MaxHoneypotPoints  = 35
	MaxTaxPoints       = 30
	MaxOwnershipPoints = 35
)

// taxTiers are checked top-down against max(buy, sell) tax.
var taxTiers = []struct {
	minPct float64
	points int
}{
	{20, 30},
	{10, 20},
	{5, 10},
	{1, 5},
}

// Score computes the 0-100 risk score. Each component is capped before the sum.
func Score(f models.TokenFacts) models.RiskScore {
	components := []models.ScoreComponent{
		{Label: ComponentHoneypot, Value: capAt(honeypotPoints(f), MaxHoneypotPoints), Max: MaxHoneypotPoints},
		{Label: ComponentTax, Value: capAt(taxPoints(f), MaxTaxPoints), Max: MaxTaxPoints},
		{Label: ComponentOwnership, Value: capAt(ownershipPoints(f), MaxOwnershipPoints), Max: MaxOwnershipPoints},
	}

	total := 0
	for _, c := range components {
		total += c.Value
	}
	return models.RiskScore{Total: capAt(total, 100), Components: components}
}

// honeypot and pausable never both contribute
func honeypotPoints(f models.TokenFacts) int {
	switch {
	case f.IsHoneypot:
		return 35
	case f.TransferPausable:
		return 20
	default:
		return 0
	}
}

func taxPoints(f models.TokenFacts) int {
	maxTax := f.MaxTaxPct()
	for _, tier := range taxTiers {
		if maxTax >= tier.minPct {
			return tier.points
		}
	}
	return 0
}

func ownershipPoints(f models.TokenFacts) int {
	points := 0
	if f.HiddenOwner {
		points += 15
	}
	if f.OwnerCanMint {
		points += 15
	}
	if !f.IsOpenSource {
		points += 5
	}
	return points
}

func capAt(v, limit int) int {
	if v > limit {
		return limit
	}
	if v < 0 {
		return 0
	}
	return v
}
