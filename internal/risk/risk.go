// Package risk reduces normalized token facts to deterministic risk signals.
//
// Two independent functions run over the same TokenFacts snapshot: Classify
// applies an ordered rule chain and returns a discrete Verdict, Score sums
// three capped components into a 0-100 RiskScore. They can disagree at the
// margins (a SAFE token may carry a small score); callers must compute both
// from one snapshot via Assess so they never drift apart.
package risk

import "github.com/walletroast/walletroast/internal/models"

// Assessment pairs the verdict and score computed from one facts snapshot.
// Confirmed is set for SAFE verdicts backed by the trust list or a clean profile.
type Assessment struct {
	Facts     models.TokenFacts
	Verdict   models.Verdict
	Score     models.RiskScore
	Tags      []string
	Confirmed bool
}

// Assess classifies and scores f in one pass.
func Assess(f models.TokenFacts) Assessment {
	return Assessment{
		Facts:     f,
		Verdict:   Classify(f),
		Score:     Score(f),
		Tags:      Tags(f),
		Confirmed: ConfirmedSafe(f),
	}
}
