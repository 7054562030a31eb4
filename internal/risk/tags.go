package risk

import (
	"strconv"

	"github.com/walletroast/walletroast/internal/models"
)

// Tags lists the short banner labels for every active risk flag.
func Tags(f models.TokenFacts) []string {
	tags := []string{}
	if f.IsHoneypot {
		tags = append(tags, "HONEYPOT")
	}
	if f.CannotSellAll {
		tags = append(tags, "CANNOT SELL ALL")
	}
	if f.HiddenOwner {
		tags = append(tags, "HIDDEN OWNER")
	}
	if f.OwnerCanMint {
		tags = append(tags, "MINTABLE")
	}
	if f.OwnerCanChangeBalance {
		tags = append(tags, "BALANCE CONTROL")
	}
	if f.TransferPausable {
		tags = append(tags, "PAUSABLE")
	}
	if !f.IsOpenSource {
		tags = append(tags, "CLOSED SOURCE")
	}
	if f.BuyTaxPct > 0 {
		tags = append(tags, "BUY TAX "+formatPct(f.BuyTaxPct))
	}
	if f.SellTaxPct > 0 {
		tags = append(tags, "SELL TAX "+formatPct(f.SellTaxPct))
	}
	return tags
}

func formatPct(pct float64) string {
	return strconv.FormatFloat(pct, 'f', -1, 64) + "%"
}
