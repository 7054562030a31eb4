package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/walletroast/walletroast/internal/models"
)

func cleanFacts() models.TokenFacts {
	return models.TokenFacts{IsOpenSource: true}
}

// forEachFacts walks every combination of boolean flags against a spread of
// tax values covering each score tier and the 20% boundary.
func forEachFacts(fn func(models.TokenFacts)) {
	taxes := []float64{0, 0.5, 1, 4.9, 5, 9.99, 10, 12, 19.9, 20, 20.01, 35, 99, 100}
	for mask := 0; mask < 1<<8; mask++ {
		bit := func(i int) bool { return mask&(1<<i) != 0 }
		for _, buy := range taxes {
			for _, sell := range taxes {
				fn(models.TokenFacts{
					IsHoneypot:            bit(0),
					OwnerCanMint:          bit(1),
					HiddenOwner:           bit(2),
					OwnerCanChangeBalance: bit(3),
					TransferPausable:      bit(4),
					IsOpenSource:          bit(5),
					IsTrusted:             bit(6),
					CannotSellAll:         bit(7),
					BuyTaxPct:  buy,
					SellTaxPct: sell,
				})
			}
		}
	}
}

func TestClassify_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		facts models.TokenFacts
		want  models.Verdict
	}{
		{"clean open source", cleanFacts(), models.VerdictSafe},
		{"honeypot with 99% sell tax", models.TokenFacts{IsHoneypot: true, SellTaxPct: 99}, models.VerdictScam},
		{"taxed in band", models.TokenFacts{BuyTaxPct: 12, SellTaxPct: 8, IsOpenSource: true}, models.VerdictRisky},
		{"sell tax exactly 20", models.TokenFacts{SellTaxPct: 20, IsOpenSource: true}, models.VerdictRisky},
		{"sell tax just over 20", models.TokenFacts{SellTaxPct: 20.01, IsOpenSource: true}, models.VerdictScam},
		{"cannot sell all", models.TokenFacts{CannotSellAll: true, IsOpenSource: true, IsTrusted: true}, models.VerdictScam},
		{"trusted but taxed", models.TokenFacts{BuyTaxPct: 3, IsOpenSource: true, IsTrusted: true}, models.VerdictRisky},
		{"trusted but mintable", models.TokenFacts{OwnerCanMint: true, IsOpenSource: true, IsTrusted: true}, models.VerdictRisky},
		{"balance control", models.TokenFacts{OwnerCanChangeBalance: true, IsOpenSource: true}, models.VerdictRisky},
		{"pausable", models.TokenFacts{TransferPausable: true, IsOpenSource: true}, models.VerdictRisky},
		{"all fields absent", models.TokenFacts{}, models.VerdictRisky},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.facts))
		})
	}
}

func TestClassify_HoneypotAlwaysScam(t *testing.T) {
	forEachFacts(func(f models.TokenFacts) {
		f.IsHoneypot = true
		assert.Equal(t, models.VerdictScam, Classify(f), "%+v", f)
	})
}

func TestClassify_HighSellTaxAlwaysScam(t *testing.T) {
	forEachFacts(func(f models.TokenFacts) {
		if f.SellTaxPct > 20 {
			assert.Equal(t, models.VerdictScam, Classify(f), "%+v", f)
		}
	})
}

func TestClassify_ClosedSourceNeverSafe(t *testing.T) {
	forEachFacts(func(f models.TokenFacts) {
		f.IsOpenSource = false
		f.IsTrusted = true
		if isScam(f) {
			return
		}
		assert.Equal(t, models.VerdictRisky, Classify(f), "%+v", f)
	})
}

func TestConfirmedSafe(t *testing.T) {
	assert.True(t, ConfirmedSafe(cleanFacts()))

	trusted := models.TokenFacts{IsOpenSource: true, IsTrusted: true}
	assert.True(t, ConfirmedSafe(trusted))

	// SAFE by default only: buy tax above the band is not a rule 2 flag
	unconfirmed := models.TokenFacts{IsOpenSource: true, BuyTaxPct: 30}
	assert.Equal(t, models.VerdictSafe, Classify(unconfirmed))
	assert.False(t, ConfirmedSafe(unconfirmed))

	assert.False(t, ConfirmedSafe(models.TokenFacts{IsHoneypot: true, IsTrusted: true}))
}
