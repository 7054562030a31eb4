package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/walletroast/walletroast/internal/logging"
	"github.com/walletroast/walletroast/internal/models"
	"github.com/walletroast/walletroast/internal/risk"
)

// Schema is a generator output shape that can check its own required fields
type Schema interface {
	Validate() error
}

// CleanGeneratorOutput strips code fence markers and surrounding whitespace
func CleanGeneratorOutput(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```JSON", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// ParseStructured extracts the single JSON object from raw generator text
// and decodes it into T. Any failure is a GENERATION_PARSE error carrying
// the raw text.
func ParseStructured[T any, PT interface {
	*T
	Schema
}](raw string) (*T, error) {
	cleaned := CleanGeneratorOutput(raw)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return nil, models.NewGenerationParseError(raw, errors.New("no JSON object in output"))
	}

	var out T
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &out); err != nil {
		return nil, models.NewGenerationParseError(raw, err)
	}
	if err := PT(&out).Validate(); err != nil {
		return nil, models.NewGenerationParseError(raw, err)
	}
	return &out, nil
}

// RoastInput is what the roast generator sees
type RoastInput struct {
	Address    string
	Assessment risk.Assessment
	Simulation models.SimulationReport
}

// RoastOutput is the roast schema
type RoastOutput struct {
	Verdict  models.Verdict `json:"verdict"`
	Roast    string         `json:"roast"`
	Tip      string         `json:"tip"`
	Warnings []string       `json:"warnings"`
}

func (o *RoastOutput) Validate() error {
	if strings.TrimSpace(o.Roast) == "" {
		return errors.New("roast is empty")
	}
	if strings.TrimSpace(o.Tip) == "" {
		return errors.New("tip is empty")
	}
	return nil
}

// InterpretInput is what the interpretation generator sees
type InterpretInput struct {
	From           string
	To             string
	Value          string
	Data           string
	Call           *models.DecodedCall
	Simulation     models.SimulationReport
	SecurityStatus models.SecurityStatus
	Assessment     *risk.Assessment
	Floor          models.RiskLevel
}

// InterpretOutput is the interpretation schema
type InterpretOutput struct {
	Summary   string           `json:"summary"`
	RiskLevel models.RiskLevel `json:"riskLevel"`
	Warnings  []string         `json:"warnings"`
	Details   []string         `json:"details"`
}

// Validate normalizes the level's case and spacing. An empty level is left
// for the floor to fill; an unknown one is a schema violation.
func (o *InterpretOutput) Validate() error {
	if strings.TrimSpace(o.Summary) == "" {
		return errors.New("summary is empty")
	}
	o.RiskLevel = models.RiskLevel(strings.ToUpper(strings.TrimSpace(string(o.RiskLevel))))
	if o.RiskLevel != "" && o.RiskLevel.Rank() < 0 {
		return fmt.Errorf("unknown risk level %q", o.RiskLevel)
	}
	return nil
}

// RecordInput is what the criminal record generator sees
type RecordInput struct {
	Wallet string
	Tokens []models.WalletToken
	Stats  models.WalletStats
	Level  models.DegenLevel
	Score  int
}

// RecordOutput is the criminal record schema. The level and score the
// generator returns are replaced by the computed ones.
type RecordOutput struct {
	Alias      string            `json:"alias"`
	DegenLevel models.DegenLevel `json:"degenLevel"`
	DegenScore json.RawMessage   `json:"degenScore"`
	Charges    []string          `json:"charges"`
	Priors     []string          `json:"priors"`
	Verdict    string            `json:"verdict"`
	Advice     string            `json:"advice"`
}

func (o *RecordOutput) Validate() error {
	if strings.TrimSpace(o.Alias) == "" {
		return errors.New("alias is empty")
	}
	if strings.TrimSpace(o.Verdict) == "" {
		return errors.New("verdict is empty")
	}
	return nil
}

// Record converts the output into the public record shape
func (o *RecordOutput) Record() models.CriminalRecord {
	return models.CriminalRecord{
		Alias:   o.Alias,
		Charges: nonNil(o.Charges),
		Priors:  nonNil(o.Priors),
		Verdict: o.Verdict,
		Advice:  o.Advice,
	}
}

// NarrativeGenerator turns computed facts into generated explanations.
// It never decides a verdict, a risk floor or a degen level itself.
type NarrativeGenerator struct {
	llm *LLMRetryWrapper
}

// NewNarrativeGenerator wraps a langchaingo model
func NewNarrativeGenerator(llm llms.Model, config LLMRetryConfig) *NarrativeGenerator {
	return &NarrativeGenerator{
		llm: NewLLMRetryWrapper(llm, config),
	}
}

// Roast generates the roast for a token. The returned verdict is always the
// computed one.
func (g *NarrativeGenerator) Roast(ctx context.Context, in RoastInput) (*RoastOutput, error) {
	raw, err := g.generateStructured(ctx, "roast", roastSystemPrompt, buildRoastPrompt(in))
	if err != nil {
		return nil, err
	}

	out, err := ParseStructured[RoastOutput](raw)
	if err != nil {
		return nil, err
	}

	if out.Verdict != in.Assessment.Verdict {
		logging.L(ctx).Debug().
			Str("generated", string(out.Verdict)).
			Str("computed", string(in.Assessment.Verdict)).
			Msg("overriding generated verdict")
		out.Verdict = in.Assessment.Verdict
	}
	out.Warnings = nonNil(out.Warnings)
	return out, nil
}

// Interpret explains a transaction. The returned level is never below in.Floor.
func (g *NarrativeGenerator) Interpret(ctx context.Context, in InterpretInput) (*InterpretOutput, error) {
	raw, err := g.generateStructured(ctx, "interpret", interpretSystemPrompt, buildInterpretPrompt(in))
	if err != nil {
		return nil, err
	}

	out, err := ParseStructured[InterpretOutput](raw)
	if err != nil {
		return nil, err
	}

	out.RiskLevel = risk.MaxLevel(in.Floor, out.RiskLevel)
	out.Warnings = nonNil(out.Warnings)
	out.Details = nonNil(out.Details)
	return out, nil
}

// CriminalRecord writes the wallet rap sheet
func (g *NarrativeGenerator) CriminalRecord(ctx context.Context, in RecordInput) (*RecordOutput, error) {
	raw, err := g.generateStructured(ctx, "criminal_record", recordSystemPrompt, buildRecordPrompt(in))
	if err != nil {
		return nil, err
	}

	out, err := ParseStructured[RecordOutput](raw)
	if err != nil {
		return nil, err
	}

	out.DegenLevel = in.Level
	out.DegenScore = json.RawMessage(fmt.Sprintf("%d", in.Score))
	out.Charges = nonNil(out.Charges)
	out.Priors = nonNil(out.Priors)
	return out, nil
}

// Chat answers the latest user turn with the prior turns as history.
// Callers validate messages; an empty reply is a GENERATION_PARSE error.
func (g *NarrativeGenerator) Chat(ctx context.Context, messages []models.ChatMessage, assessment *models.AssessmentResult) (*models.ChatReply, error) {
	content := make([]llms.MessageContent, 0, len(messages)+1)
	content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, chatSystemPrompt+chatContextBlock(assessment)))
	for _, m := range messages {
		role := llms.ChatMessageTypeHuman
		if m.Role == models.ChatRoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, m.Content))
	}

	raw, err := g.llm.GenerateText(ctx, "chat", content)
	if err != nil {
		return nil, models.NewUpstreamError("generator", err)
	}

	reply := CleanGeneratorOutput(raw)
	if reply == "" {
		return nil, models.NewGenerationParseError(raw, errors.New("empty reply"))
	}
	return &models.ChatReply{Reply: reply}, nil
}

func (g *NarrativeGenerator) generateStructured(ctx context.Context, useCase, system, prompt string) (string, error) {
	raw, err := g.llm.GenerateText(ctx, useCase, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, llms.WithJSONMode())
	if err != nil {
		return "", models.NewUpstreamError("generator", err)
	}
	return raw, nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
