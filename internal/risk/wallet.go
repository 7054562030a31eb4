package risk

import "github.com/walletroast/walletroast/internal/models"

// FlaggedTaxPct is the tax above which a holding counts as risky in wallet stats.
const FlaggedTaxPct = 5.0

// WalletStats aggregates held tokens. Only scanned tokens feed the security
// counters; tokens without facts are counted as unscanned. Risky counts
// red-flagged holdings whatever their verdict, so a scam with a hidden owner
// is both a scam and risky.
func WalletStats(tokens []models.WalletToken) models.WalletStats {
	stats := models.WalletStats{TotalTokens: len(tokens)}
	for _, t := range tokens {
		if !t.Scanned() {
			stats.Unscanned++
			continue
		}
		if t.Facts.IsHoneypot {
			stats.Honeypots++
		}
		if redFlagged(t.Facts) {
			stats.Risky++
		}
		if t.Verdict == models.VerdictScam {
			stats.Scams++
		}
		if t.Facts.IsTrusted {
			stats.Trusted++
		}
		if !t.Facts.IsOpenSource {
			stats.ClosedSource++
		}
	}
	return stats
}

func redFlagged(f models.TokenFacts) bool {
	return f.HiddenOwner ||
		f.OwnerCanMint ||
		!f.IsOpenSource ||
		f.BuyTaxPct > FlaggedTaxPct ||
		f.SellTaxPct > FlaggedTaxPct
}

// DegenLevel ranks a wallet by what it holds:
//
//	MOST_WANTED - scams are the majority of scanned holdings
//	WANTED      - at least one scam
//	DEGEN       - three or more risky tokens
//	SUSPECT     - one or two risky tokens
//	CLEAN       - nothing questionable
func DegenLevel(stats models.WalletStats) models.DegenLevel {
	scanned := stats.TotalTokens - stats.Unscanned
	switch {
	case stats.Scams == 0 && stats.Risky == 0:
		return models.DegenClean
	case stats.Scams*2 > scanned:
		return models.DegenMostWanted
	case stats.Scams > 0:
		return models.DegenWanted
	case stats.Risky >= 3:
		return models.DegenDegen
	default:
		return models.DegenSuspect
	}
}

// DegenScore is the mean risk score of the scanned holdings, 0 when none.
func DegenScore(tokens []models.WalletToken) int {
	sum, n := 0, 0
	for _, t := range tokens {
		if !t.Scanned() {
			continue
		}
		sum += t.RiskScore.Total
		n++
	}
	if n == 0 {
		return 0
	}
	return capAt((sum+n/2)/n, 100)
}
