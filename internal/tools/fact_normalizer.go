package tools

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/walletroast/walletroast/internal/models"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// FactNormalizer turns raw security records into TokenFacts.
//
// Absent or unparseable fields are benign: flags become false and taxes
// become 0. Only a missing record is an error.
type FactNormalizer struct {
	// TaxAsFraction treats tax values as fractions of 1 and scales them to
	// percentages. Off by default: values are read as percentages.
	TaxAsFraction bool
}

// NormalizeFacts normalizes the record for address with default options
func NormalizeFacts(records map[string]RawTokenSecurity, address string) (models.TokenFacts, error) {
	return FactNormalizer{}.Normalize(records, address)
}

// Normalize looks up address in records and converts the record
func (n FactNormalizer) Normalize(records map[string]RawTokenSecurity, address string) (models.TokenFacts, error) {
	record, ok := lookupRecord(records, address)
	if !ok {
		return models.TokenFacts{}, models.NewNotFoundError("no security data for %s", address)
	}
	return n.Convert(record), nil
}

// Convert maps one record to TokenFacts
func (n FactNormalizer) Convert(record RawTokenSecurity) models.TokenFacts {
	return models.TokenFacts{
		IsHoneypot:            flag(record.IsHoneypot),
		BuyTaxPct:             n.taxPct(record.BuyTax),
		SellTaxPct:            n.taxPct(record.SellTax),
		OwnerCanMint:          flag(record.IsMintable),
		HiddenOwner:           flag(record.HiddenOwner),
		OwnerCanChangeBalance: flag(record.OwnerChangeBalance),
		TransferPausable:      flag(record.TransferPausable),
		IsOpenSource:          flag(record.IsOpenSource),
		IsTrusted:             flag(record.TrustList),
		CannotSellAll:         flag(record.CannotSellAll),
		TokenName:             optionalText(record.TokenName),
		TokenSymbol:           optionalText(record.TokenSymbol),
	}
}

func lookupRecord(records map[string]RawTokenSecurity, address string) (RawTokenSecurity, bool) {
	if records == nil {
		return RawTokenSecurity{}, false
	}
	key := strings.ToLower(strings.TrimSpace(address))
	if record, ok := records[key]; ok {
		return record, true
	}
	for addr, record := range records {
		if strings.EqualFold(addr, key) {
			return record, true
		}
	}
	return RawTokenSecurity{}, false
}

// flag is true only for the "1" sentinel
func flag(v ProviderValue) bool {
	return strings.TrimSpace(string(v)) == "1"
}

func (n FactNormalizer) taxPct(v ProviderValue) float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(string(v)))
	if err != nil {
		return 0
	}
	if n.TaxAsFraction {
		d = d.Mul(hundred)
	}
	if d.LessThan(zero) {
		d = zero
	}
	if d.GreaterThan(hundred) {
		d = hundred
	}
	return d.InexactFloat64()
}

func optionalText(v ProviderValue) *string {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return nil
	}
	return &s
}
