package risk

import "github.com/walletroast/walletroast/internal/models"

// ScamSellTaxPct is the sell tax above which a token is a scam outright.
const ScamSellTaxPct = 20.0

// Classify applies the verdict rule chain, first match wins:
//
//  1. SCAM  - honeypot, sell tax above 20%, or holders cannot sell everything
//  2. RISKY - any owner power, any tax in (0,20], pausable transfers, or closed source
//  3. SAFE  - everything else
//
// Trust-list membership only confirms a profile that already reached rule 3;
// it never excuses a rule 1 or rule 2 flag.
func Classify(f models.TokenFacts) models.Verdict {
	if isScam(f) {
		return models.VerdictScam
	}
	if isRisky(f) {
		return models.VerdictRisky
	}
	return models.VerdictSafe
}

// ConfirmedSafe reports whether a SAFE verdict is backed by the trust list or
// by a fully clean profile. Tokens that are SAFE only by default are not.
func ConfirmedSafe(f models.TokenFacts) bool {
	if Classify(f) != models.VerdictSafe {
		return false
	}
	return f.IsTrusted || cleanProfile(f)
}

func isScam(f models.TokenFacts) bool {
	return f.IsHoneypot || f.SellTaxPct > ScamSellTaxPct || f.CannotSellAll
}

func isRisky(f models.TokenFacts) bool {
	return f.HiddenOwner ||
		f.OwnerCanMint ||
		f.OwnerCanChangeBalance ||
		inTaxBand(f.BuyTaxPct) ||
		inTaxBand(f.SellTaxPct) ||
		f.TransferPausable ||
		!f.IsOpenSource
}

// inTaxBand is the (0,20] band of rule 2.
func inTaxBand(pct float64) bool {
	return pct > 0 && pct <= ScamSellTaxPct
}

func cleanProfile(f models.TokenFacts) bool {
	return !f.IsHoneypot &&
		f.BuyTaxPct == 0 &&
		f.SellTaxPct == 0 &&
		f.IsOpenSource &&
		!f.HiddenOwner &&
		!f.OwnerCanMint &&
		!f.OwnerCanChangeBalance
}
