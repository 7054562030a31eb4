package models

import "fmt"

// Verdict is the discrete classification of a token contract
type Verdict string

const (
	VerdictSafe  Verdict = "SAFE"
	VerdictRisky Verdict = "RISKY"
	VerdictScam  Verdict = "SCAM"
)

// Severity orders verdicts SAFE < RISKY < SCAM
func (v Verdict) Severity() int {
	switch v {
	case VerdictSafe:
		return 0
	case VerdictRisky:
		return 1
	case VerdictScam:
		return 2
	default:
		return -1
	}
}

// MaxVerdict returns the most severe of the given verdicts (SAFE when empty)
func MaxVerdict(verdicts ...Verdict) Verdict {
	worst := VerdictSafe
	for _, v := range verdicts {
		if v.Severity() > worst.Severity() {
			worst = v
		}
	}
	return worst
}

// TokenFacts is the normalized security snapshot of one token contract.
// Absent provider fields are benign: false for flags, 0 for taxes.
type TokenFacts struct {
	IsHoneypot            bool    `json:"isHoneypot"`
	BuyTaxPct             float64 `json:"buyTax"`
	SellTaxPct            float64 `json:"sellTax"`
	OwnerCanMint          bool    `json:"ownerCanMint"`
	HiddenOwner           bool    `json:"hiddenOwner"`
	OwnerCanChangeBalance bool    `json:"ownerCanChangeBalance"`
	TransferPausable      bool    `json:"transferPausable"`
	IsOpenSource          bool    `json:"isOpenSource"`
	IsTrusted             bool    `json:"isTrusted"`
	CannotSellAll         bool    `json:"cannotSellAll"`
	TokenName             *string `json:"tokenName"`
	TokenSymbol           *string `json:"tokenSymbol"`
}

// DisplayName renders "Name (SYMBOL)" when both are known
func (f TokenFacts) DisplayName() string {
	if f.TokenName != nil && f.TokenSymbol != nil && *f.TokenName != "" && *f.TokenSymbol != "" {
		return fmt.Sprintf("%s (%s)", *f.TokenName, *f.TokenSymbol)
	}
	return "Unknown Token"
}

// MaxTaxPct is the larger of buy and sell tax
func (f TokenFacts) MaxTaxPct() float64 {
	if f.BuyTaxPct > f.SellTaxPct {
		return f.BuyTaxPct
	}
	return f.SellTaxPct
}

// ScoreComponent is one capped contribution to a RiskScore
type ScoreComponent struct {
	Label string `json:"label"`
	Value int    `json:"value"`
	Max   int    `json:"max"`
}

// RiskScore is a bounded 0-100 risk signal built from capped components
type RiskScore struct {
	Total      int              `json:"total"`
	Components []ScoreComponent `json:"components"`
}

// Component returns the value of the component with the given label
func (s RiskScore) Component(label string) int {
	for _, c := range s.Components {
		if c.Label == label {
			return c.Value
		}
	}
	return 0
}

// Direction of a simulated asset change as reported by the simulation provider
type Direction string

const (
	DirectionTransfer Direction = "TRANSFER"
	DirectionApprove  Direction = "APPROVE"
)

// AssetChange is one predicted balance delta from a transaction simulation
type AssetChange struct {
	Asset     string    `json:"asset"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name,omitempty"`
	Amount    string    `json:"amount"` // signed decimal, negative when the sender loses it
	Direction Direction `json:"direction"`
	Unlimited bool      `json:"unlimited,omitempty"`
}

// SimulationStatus separates "never ran" from "ran and failed" from "ran"
type SimulationStatus string

const (
	SimulationNotAttempted SimulationStatus = "NOT_ATTEMPTED"
	SimulationFailed       SimulationStatus = "FAILED"
	SimulationSucceeded    SimulationStatus = "SUCCEEDED"
)

// SimulationReport is the summarized outcome of a simulation attempt
type SimulationReport struct {
	Status  SimulationStatus `json:"status"`
	Changes []AssetChange    `json:"changes"`
	Error   string           `json:"error,omitempty"`
}

// Available reports whether the simulation ran successfully
func (r SimulationReport) Available() bool {
	return r.Status == SimulationSucceeded
}

// Lost returns transfers leaving the sender
func (r SimulationReport) Lost() []AssetChange {
	return r.filterTransfers(func(amount string) bool { return len(amount) > 0 && amount[0] == '-' })
}

// Gained returns transfers arriving at the sender
func (r SimulationReport) Gained() []AssetChange {
	return r.filterTransfers(func(amount string) bool {
		return len(amount) > 0 && amount[0] != '-' && amount != "0"
	})
}

func (r SimulationReport) filterTransfers(keep func(string) bool) []AssetChange {
	out := []AssetChange{}
	for _, c := range r.Changes {
		if c.Direction == DirectionTransfer && keep(c.Amount) {
			out = append(out, c)
		}
	}
	return out
}

// Narrative is the generated, human-readable part of an assessment
type Narrative struct {
	Roast    string   `json:"roast"`
	Tip      string   `json:"tip"`
	Warnings []string `json:"warnings,omitempty"`
}

// AssessmentResult is the full answer to a single-token roast. ConfirmedSafe
// is false for tokens that are SAFE only because no rule matched.
type AssessmentResult struct {
	Address       string           `json:"address"`
	TokenName     string           `json:"tokenName"`
	Verdict       Verdict          `json:"verdict"`
	ConfirmedSafe bool             `json:"confirmedSafe"`
	RiskScore     RiskScore        `json:"riskScore"`
	RiskTags      []string         `json:"riskTags"`
	Narrative     Narrative        `json:"narrative"`
	Facts         TokenFacts       `json:"facts"`
	Simulation    SimulationReport `json:"simulation"`
}

// RiskLevel is the three-tier scale used for transaction interpretation
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Rank orders risk levels LOW < MEDIUM < HIGH
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return -1
	}
}

// SecurityStatus describes whether security facts could be attached
type SecurityStatus string

const (
	SecurityAvailable   SecurityStatus = "AVAILABLE"
	SecurityNoData      SecurityStatus = "NO_DATA"
	SecurityUnavailable SecurityStatus = "UNAVAILABLE"
)

// DecodedCall is what a transaction's calldata asks the destination to do
type DecodedCall struct {
	Selector          string   `json:"selector"`
	Signature         string   `json:"signature,omitempty"`
	Args              []string `json:"args,omitempty"`
	Approval          bool     `json:"approval,omitempty"`
	UnlimitedApproval bool     `json:"unlimitedApproval,omitempty"`
}

// InterpretationResult explains what a transaction will do and how risky it is
type InterpretationResult struct {
	Summary        string           `json:"summary"`
	RiskLevel      RiskLevel        `json:"riskLevel"`
	Warnings       []string         `json:"warnings"`
	Details        []string         `json:"details"`
	Simulation     SimulationReport `json:"simulation"`
	Call           *DecodedCall     `json:"call,omitempty"`
	SecurityStatus SecurityStatus   `json:"securityStatus"`
	Security       *TokenFacts      `json:"security,omitempty"`
	Verdict        *Verdict         `json:"verdict,omitempty"`
	RiskScore      *RiskScore       `json:"riskScore,omitempty"`
}

// DegenLevel is the wallet "criminal record" tier
type DegenLevel string

const (
	DegenClean      DegenLevel = "CLEAN"
	DegenSuspect    DegenLevel = "SUSPECT"
	DegenDegen      DegenLevel = "DEGEN"
	DegenWanted     DegenLevel = "WANTED"
	DegenMostWanted DegenLevel = "MOST_WANTED"
)

// LookupStatus marks whether an optional per-token lookup succeeded
type LookupStatus string

const (
	LookupOK          LookupStatus = "OK"
	LookupNoData      LookupStatus = "NO_DATA"
	LookupUnavailable LookupStatus = "UNAVAILABLE"
)

// WalletToken is one held token inside a wallet profile
type WalletToken struct {
	Address        string       `json:"address"`
	Name           string       `json:"name"`
	Symbol         string       `json:"symbol"`
	Balance        string       `json:"balance"`
	MetadataStatus LookupStatus `json:"metadataStatus"`
	SecurityStatus LookupStatus `json:"securityStatus"`
	Facts          TokenFacts   `json:"facts"`
	Verdict        Verdict      `json:"verdict,omitempty"`
	RiskScore      RiskScore    `json:"riskScore"`
}

// Scanned reports whether security facts were found for the token
func (t WalletToken) Scanned() bool {
	return t.SecurityStatus == LookupOK
}

// WalletStats aggregates the security profile of a wallet's holdings
type WalletStats struct {
	TotalTokens  int `json:"totalTokens"`
	Honeypots    int `json:"honeypots"`
	Risky        int `json:"risky"`
	Scams        int `json:"scams"`
	Trusted      int `json:"trusted"`
	ClosedSource int `json:"closedSource"`
	Unscanned    int `json:"unscanned"`
}

// CriminalRecord is the generated, themed part of a wallet profile
type CriminalRecord struct {
	Alias   string   `json:"alias"`
	Charges []string `json:"charges"`
	Priors  []string `json:"priors"`
	Verdict string   `json:"verdict"`
	Advice  string   `json:"advice"`
}

// WalletProfile is the "criminal record" of a wallet built from its holdings
type WalletProfile struct {
	Address    string         `json:"walletAddress"`
	Tokens     []WalletToken  `json:"tokens"`
	Stats      WalletStats    `json:"stats"`
	DegenLevel DegenLevel     `json:"degenLevel"`
	DegenScore int            `json:"degenScore"`
	Record     CriminalRecord `json:"record"`
}

// ChatRole identifies the author of a chat turn
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of a follow-up conversation
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ChatReply is the generator's answer to the latest user turn
type ChatReply struct {
	Reply string `json:"reply"`
}

// AssessTokenRequest is the input of a single-token roast
type AssessTokenRequest struct {
	ContractAddress string `json:"contractAddress"`
	FromAddress     string `json:"fromAddress,omitempty"`
}

// InterpretRequest is the input of a transaction interpretation
type InterpretRequest struct {
	FromAddress string `json:"fromAddress"`
	ToAddress   string `json:"toAddress"`
	Value       string `json:"value,omitempty"`
	Data        string `json:"data,omitempty"`
}

// WalletRequest is the input of a wallet criminal record
type WalletRequest struct {
	WalletAddress string `json:"walletAddress"`
}

// ChatRequest carries the history plus the assessment the chat is about
type ChatRequest struct {
	Messages     []ChatMessage     `json:"messages"`
	TokenContext *AssessmentResult `json:"tokenContext,omitempty"`
}
