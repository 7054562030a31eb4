package tools

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/walletroast/walletroast/internal/models"
	"github.com/walletroast/walletroast/internal/risk"
)

const roastSystemPrompt = `You are WalletRoast, a crypto security analyst with a savage sense of humor.

You receive the security facts for one token contract and a verdict that has already been decided from those facts. Roast the token and give the reader one practical tip.

Rules:
- Use ONLY the facts below. Never invent numbers, owners, audits, team members or price history.
- Keep the verdict you were given. You explain it, you do not change it.
- If the simulation is not available, do not guess what the transaction would do.
- Keep the roast to 2-3 sentences. Crypto slang is welcome, invented data is not.

Respond ONLY with one JSON object in exactly this shape, with no extra text:
{
  "verdict": "SAFE" or "RISKY" or "SCAM",
  "roast": "2-3 sentence roast grounded in the facts",
  "tip": "one actionable safety tip",
  "warnings": ["short warnings, each tied to a fact above"]
}`

const interpretSystemPrompt = `You are a blockchain security assistant explaining a transaction to its sender before they sign it.

You receive the transaction, its simulated asset changes (if a simulation ran) and the security facts of the destination contract (if it is a known token). Explain in plain English what will happen and how risky it is.

Rules:
- Use ONLY the data below. Never invent amounts, tokens or counterparties.
- If the simulation failed or was not attempted, say that the outcome could not be previewed.
- riskLevel is HIGH for honeypots, sell tax above 20%, unlimited approvals, or assets lost with nothing received.
- riskLevel is MEDIUM for any tax between 1% and 20%, hidden owners, mintable or pausable tokens, closed source contracts, or unusual flows.
- riskLevel is LOW otherwise.

Respond ONLY with one JSON object in exactly this shape, with no extra text:
{
  "summary": "one or two sentences describing what the transaction does",
  "riskLevel": "LOW" or "MEDIUM" or "HIGH",
  "warnings": ["specific warnings grounded in the data"],
  "details": ["short factual bullet points about the asset changes and the contract"]
}`

const recordSystemPrompt = `You are a crypto crime investigator writing a CRIMINAL RECORD for a wallet, based only on the tokens it holds and their security facts.

The degen level and degen score were already computed from the holdings. Use them as given and write the rest of the rap sheet around them.

Rules:
- Charges and priors must each point at real holdings or stats listed below. Never invent tokens or history.
- Tokens marked unscanned have no security data. Do not accuse them of anything specific.
- Be dramatic and funny. This is entertainment, grounded in facts.

Respond ONLY with one JSON object in exactly this shape, with no extra text:
{
  "alias": "a funny nickname for this wallet",
  "degenLevel": "CLEAN" or "SUSPECT" or "DEGEN" or "WANTED" or "MOST_WANTED",
  "degenScore": number from 0 to 100,
  "charges": ["criminal-style charges based on holdings"],
  "priors": ["past offenses inferred from holdings"],
  "verdict": "one dramatic sentence summarizing the wallet's status",
  "advice": "one piece of rehabilitation advice"
}`

const chatSystemPrompt = `You are WalletRoast, a crypto security analyst: sharp, witty, slightly sarcastic and genuinely helpful.

You already analyzed a token and gave a verdict. The user is asking follow-up questions about it.

Rules:
- Answer ONLY from the token facts below. Never invent data.
- Price predictions and financial advice get deflected: "I roast tokens, I don't predict their price. DYOR."
- Keep answers to 2-3 sentences unless the user asks for detail.
- If the question has nothing to do with the token, steer the user back to it.
- Reply in plain prose, not JSON.`

// buildRoastPrompt renders the facts of one token for the roast generator
func buildRoastPrompt(in RoastInput) string {
	var b strings.Builder
	a := in.Assessment

	fmt.Fprintf(&b, "Token: %s\n", a.Facts.DisplayName())
	fmt.Fprintf(&b, "Contract: %s\n", in.Address)
	fmt.Fprintf(&b, "Verdict (already decided): %s\n", verdictLabel(a))
	fmt.Fprintf(&b, "Risk score: %d/100 (%s)\n", a.Score.Total, formatComponents(a.Score))
	if len(a.Tags) > 0 {
		fmt.Fprintf(&b, "Risk tags: %s\n", strings.Join(a.Tags, ", "))
	}

	b.WriteString("\n### SECURITY FACTS:\n")
	writeFacts(&b, a.Facts)

	b.WriteString("\n### SIMULATION:\n")
	writeSimulation(&b, in.Simulation)

	b.WriteString("\nRoast this token.")
	return b.String()
}

// buildInterpretPrompt renders a transaction and its evidence
func buildInterpretPrompt(in InterpretInput) string {
	var b strings.Builder

	b.WriteString("### TRANSACTION:\n")
	fmt.Fprintf(&b, "- From: %s\n", in.From)
	fmt.Fprintf(&b, "- To: %s\n", in.To)
	fmt.Fprintf(&b, "- Value (wei, hex): %s\n", valueOrNone(in.Value))
	fmt.Fprintf(&b, "- Calldata: %s\n", describeCalldata(in.Data))
	if in.Call != nil && in.Call.Signature != "" {
		fmt.Fprintf(&b, "- Decoded call: %s(%s)\n", functionName(in.Call.Signature), strings.Join(in.Call.Args, ", "))
		if in.Call.UnlimitedApproval {
			b.WriteString("- WARNING: grants unlimited spending rights\n")
		}
	}

	b.WriteString("\n### SIMULATION:\n")
	writeSimulation(&b, in.Simulation)

	b.WriteString("\n### DESTINATION CONTRACT SECURITY:\n")
	switch {
	case in.Assessment != nil:
		fmt.Fprintf(&b, "Token: %s\n", in.Assessment.Facts.DisplayName())
		fmt.Fprintf(&b, "Verdict: %s, risk score %d/100\n", verdictLabel(*in.Assessment), in.Assessment.Score.Total)
		writeFacts(&b, in.Assessment.Facts)
	case in.SecurityStatus == models.SecurityNoData:
		b.WriteString("No security data: the destination is not a known token contract.\n")
	default:
		b.WriteString("Security data unavailable.\n")
	}

	fmt.Fprintf(&b, "\nMinimum risk level from the rules: %s\n", in.Floor)
	b.WriteString("\nExplain this transaction.")
	return b.String()
}

// buildRecordPrompt renders a wallet's holdings for the criminal record
func buildRecordPrompt(in RecordInput) string {
	var b strings.Builder
	s := in.Stats

	fmt.Fprintf(&b, "Wallet: %s\n", in.Wallet)
	fmt.Fprintf(&b, "Degen level (already decided): %s\n", in.Level)
	fmt.Fprintf(&b, "Degen score (already decided): %d/100\n", in.Score)

	b.WriteString("\n### PORTFOLIO STATS:\n")
	fmt.Fprintf(&b, "- Tokens held: %s\n", humanize.Comma(int64(s.TotalTokens)))
	fmt.Fprintf(&b, "- Honeypots: %d\n", s.Honeypots)
	fmt.Fprintf(&b, "- Scam verdicts: %d\n", s.Scams)
	fmt.Fprintf(&b, "- Risky tokens (hidden owner, mintable, closed source or tax above 5%%): %d\n", s.Risky)
	fmt.Fprintf(&b, "- Trusted tokens: %d\n", s.Trusted)
	fmt.Fprintf(&b, "- Closed source: %d\n", s.ClosedSource)
	fmt.Fprintf(&b, "- Unscanned: %d\n", s.Unscanned)
	if s.TotalTokens > s.Unscanned {
		fmt.Fprintf(&b, "- Worst verdict held: %s\n", worstVerdict(in.Tokens))
	}

	b.WriteString("\n### HOLDINGS:\n")
	if len(in.Tokens) == 0 {
		b.WriteString("No token holdings.\n")
	}
	for _, t := range in.Tokens {
		if !t.Scanned() {
			fmt.Fprintf(&b, "- %s (%s): unscanned\n", t.Name, t.Symbol)
			continue
		}
		f := t.Facts
		fmt.Fprintf(&b, "- %s (%s): verdict=%s, score=%d, honeypot=%t, buyTax=%s%%, sellTax=%s%%, hiddenOwner=%t, mintable=%t, openSource=%t, trusted=%t\n",
			t.Name, t.Symbol, t.Verdict, t.RiskScore.Total, f.IsHoneypot,
			humanize.Ftoa(f.BuyTaxPct), humanize.Ftoa(f.SellTaxPct),
			f.HiddenOwner, f.OwnerCanMint, f.IsOpenSource, f.IsTrusted)
	}

	b.WriteString("\nGenerate the criminal record.")
	return b.String()
}

func worstVerdict(tokens []models.WalletToken) models.Verdict {
	verdicts := make([]models.Verdict, 0, len(tokens))
	for _, t := range tokens {
		if t.Scanned() {
			verdicts = append(verdicts, t.Verdict)
		}
	}
	return models.MaxVerdict(verdicts...)
}

// chatContextBlock is appended to the chat system prompt
func chatContextBlock(ctx *models.AssessmentResult) string {
	if ctx == nil {
		return "\n\nNo token context available."
	}

	var b strings.Builder
	b.WriteString("\n\n### TOKEN BEING DISCUSSED:\n")
	fmt.Fprintf(&b, "Token: %s\n", valueOr(ctx.TokenName, "Unknown"))
	fmt.Fprintf(&b, "Contract: %s\n", ctx.Address)
	fmt.Fprintf(&b, "Verdict: %s, risk score %d/100\n",
		verdictLabel(risk.Assessment{Verdict: ctx.Verdict, Confirmed: ctx.ConfirmedSafe}), ctx.RiskScore.Total)
	if ctx.Narrative.Roast != "" {
		fmt.Fprintf(&b, "Your roast: %q\n", ctx.Narrative.Roast)
	}
	writeFacts(&b, ctx.Facts)
	return b.String()
}

func writeFacts(b *strings.Builder, f models.TokenFacts) {
	fmt.Fprintf(b, "- Honeypot: %t\n", f.IsHoneypot)
	fmt.Fprintf(b, "- Buy tax: %s%%\n", humanize.Ftoa(f.BuyTaxPct))
	fmt.Fprintf(b, "- Sell tax: %s%%\n", humanize.Ftoa(f.SellTaxPct))
	fmt.Fprintf(b, "- Cannot sell all: %t\n", f.CannotSellAll)
	fmt.Fprintf(b, "- Hidden owner: %t\n", f.HiddenOwner)
	fmt.Fprintf(b, "- Owner can mint: %t\n", f.OwnerCanMint)
	fmt.Fprintf(b, "- Owner can change balances: %t\n", f.OwnerCanChangeBalance)
	fmt.Fprintf(b, "- Transfers pausable: %t\n", f.TransferPausable)
	fmt.Fprintf(b, "- Open source: %t\n", f.IsOpenSource)
	fmt.Fprintf(b, "- On trust list: %t\n", f.IsTrusted)
}

// writeSimulation keeps the three simulation states distinct for the model
func writeSimulation(b *strings.Builder, sim models.SimulationReport) {
	switch sim.Status {
	case models.SimulationNotAttempted:
		b.WriteString("Simulation not attempted.\n")
		return
	case models.SimulationFailed:
		b.WriteString("Simulation failed or unavailable.\n")
		return
	}

	if len(sim.Changes) == 0 {
		b.WriteString("Simulation ran: no asset changes detected.\n")
		return
	}
	for _, c := range sim.Changes {
		fmt.Fprintf(b, "- %s\n", describeChange(c))
	}
}

func describeChange(c models.AssetChange) string {
	if c.Direction == models.DirectionApprove {
		return fmt.Sprintf("APPROVE %s %s (%s)", c.Amount, c.Symbol, c.Asset)
	}
	if c.Direction != models.DirectionTransfer {
		return fmt.Sprintf("%s %s %s (%s)", c.Direction, c.Amount, c.Symbol, c.Asset)
	}
	if strings.HasPrefix(c.Amount, "-") {
		return fmt.Sprintf("SEND %s %s (%s)", strings.TrimPrefix(c.Amount, "-"), c.Symbol, c.Asset)
	}
	return fmt.Sprintf("RECEIVE %s %s (%s)", c.Amount, c.Symbol, c.Asset)
}

func formatComponents(s models.RiskScore) string {
	parts := make([]string, 0, len(s.Components))
	for _, c := range s.Components {
		parts = append(parts, fmt.Sprintf("%s %d/%d", c.Label, c.Value, c.Max))
	}
	return strings.Join(parts, ", ")
}

// verdictLabel qualifies a SAFE verdict that no positive signal backs
func verdictLabel(a risk.Assessment) string {
	if a.Verdict == models.VerdictSafe && !a.Confirmed {
		return "SAFE (unconfirmed: not on the trust list and not a clean profile)"
	}
	return string(a.Verdict)
}

func describeCalldata(data string) string {
	if data == "" || data == "0x" {
		return "none (plain transfer)"
	}
	if len(data) < 10 {
		return data
	}
	return fmt.Sprintf("selector %s, %s bytes", data[:10], humanize.Comma(int64((len(data)-2)/2)))
}

func valueOrNone(v string) string {
	return valueOr(v, "0x0")
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
