package risk

import "github.com/walletroast/walletroast/internal/models"

// TransactionLevel is the deterministic floor for a transaction's risk level.
// facts may be nil when the counterpart is not a scanned token. A generated
// level can raise this floor but never lower it.
func TransactionLevel(facts *models.TokenFacts, sim models.SimulationReport) models.RiskLevel {
	if facts != nil && isScam(*facts) {
		return models.RiskHigh
	}
	if hasUnlimitedApproval(sim) || netLossWithoutGain(sim) {
		return models.RiskHigh
	}
	if facts != nil && (isRisky(*facts) || facts.MaxTaxPct() > 0) {
		return models.RiskMedium
	}
	if hasApproval(sim) {
		return models.RiskMedium
	}
	return models.RiskLow
}

// CallLevel rates what decoded calldata grants. Approvals signed outside a
// simulation still hand over spending rights, so they raise the floor too.
func CallLevel(call *models.DecodedCall) models.RiskLevel {
	switch {
	case call == nil:
		return models.RiskLow
	case call.UnlimitedApproval:
		return models.RiskHigh
	case call.Approval:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// MaxLevel returns the higher of two levels. Unknown levels rank below LOW.
func MaxLevel(a, b models.RiskLevel) models.RiskLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

func hasUnlimitedApproval(sim models.SimulationReport) bool {
	for _, c := range sim.Changes {
		if c.Direction == models.DirectionApprove && c.Unlimited {
			return true
		}
	}
	return false
}

func hasApproval(sim models.SimulationReport) bool {
	for _, c := range sim.Changes {
		if c.Direction == models.DirectionApprove {
			return true
		}
	}
	return false
}

func netLossWithoutGain(sim models.SimulationReport) bool {
	if !sim.Available() {
		return false
	}
	return len(sim.Lost()) > 0 && len(sim.Gained()) == 0
}
