package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/walletroast/walletroast/internal/config"
	"github.com/walletroast/walletroast/internal/models"
	"github.com/walletroast/walletroast/internal/rpc"
	txtools "github.com/walletroast/walletroast/internal/tools"
)

// FactsProvider looks up security records for a batch of token contracts
type FactsProvider interface {
	TokenSecurity(ctx context.Context, addresses []string) (map[string]txtools.RawTokenSecurity, error)
}

// Simulator dry-runs a transaction and reports its asset changes
type Simulator interface {
	SimulateAssetChanges(ctx context.Context, req rpc.SimulationRequest) (*rpc.SimulationResult, error)
}

// HoldingsProvider enumerates a wallet's ERC-20 balances and their metadata
type HoldingsProvider interface {
	GetTokenBalances(ctx context.Context, wallet string) ([]rpc.TokenBalance, error)
	txtools.TokenMetadataSource
}

// Options wires an Agent. Facts and Generator are required; without a
// Simulator simulations are reported as not attempted, and without a
// HoldingsProvider wallet profiles are unavailable.
type Options struct {
	Facts               FactsProvider
	Simulator           Simulator
	Holdings            HoldingsProvider
	Generator           *txtools.NarrativeGenerator
	Normalizer          txtools.FactNormalizer
	MaxWalletTokens     int
	MetadataConcurrency int
}

// Agent runs the roast, interpretation, wallet record and chat pipelines.
// It holds no per-request state and is safe for concurrent use.
type Agent struct {
	facts               FactsProvider
	simulator           Simulator
	holdings            HoldingsProvider
	generator           *txtools.NarrativeGenerator
	normalizer          txtools.FactNormalizer
	maxWalletTokens     int
	metadataConcurrency int
}

// New creates an agent from explicit collaborators
func New(opts Options) (*Agent, error) {
	if opts.Facts == nil {
		return nil, errors.New("a facts provider is required")
	}
	if opts.Generator == nil {
		return nil, errors.New("a narrative generator is required")
	}
	if opts.MaxWalletTokens <= 0 {
		opts.MaxWalletTokens = config.DefaultMaxWalletTokens
	}
	if opts.MetadataConcurrency <= 0 {
		opts.MetadataConcurrency = config.DefaultMetadataConcurrency
	}

	return &Agent{
		facts:               opts.Facts,
		simulator:           opts.Simulator,
		holdings:            opts.Holdings,
		generator:           opts.Generator,
		normalizer:          opts.Normalizer,
		maxWalletTokens:     opts.MaxWalletTokens,
		metadataConcurrency: opts.MetadataConcurrency,
	}, nil
}

// NewAgent builds an agent backed by GoPlus, Alchemy and the configured LLM
func NewAgent(ctx context.Context, cfg *config.Config) (*Agent, error) {
	llm, err := NewModel(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := Options{
		Facts:     txtools.NewGoPlusClient(cfg.GoPlusBaseURL, cfg.GoPlusChainID(), cfg.ProviderTimeout),
		Generator: txtools.NewNarrativeGenerator(llm, generatorRetryConfig(cfg)),
		Normalizer: txtools.FactNormalizer{
			TaxAsFraction: cfg.GoPlusTaxAsFraction,
		},
		MaxWalletTokens:     cfg.MaxWalletTokens,
		MetadataConcurrency: cfg.MetadataConcurrency,
	}

	// Leave the interfaces nil rather than holding a nil client
	if url := cfg.RPCURL(); cfg.SimulationEnabled() && url != "" {
		client := rpc.NewClient(url, cfg.ProviderTimeout)
		opts.Simulator = client
		opts.Holdings = client
	}

	return New(opts)
}

// NewModel initializes the langchaingo model selected by LLM_PROVIDER
func NewModel(ctx context.Context, cfg *config.Config) (llms.Model, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		llm, err := openai.New(
			openai.WithModel(cfg.LLMModel),
			openai.WithToken(cfg.OpenAIAPIKey),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI model: %w", err)
		}
		return llm, nil
	case config.ProviderGemini:
		llm, err := googleai.New(ctx,
			googleai.WithAPIKey(cfg.GeminiAPIKey),
			googleai.WithDefaultModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini model: %w", err)
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
	}
}

func generatorRetryConfig(cfg *config.Config) txtools.LLMRetryConfig {
	retry := txtools.DefaultLLMRetryConfig()
	retry.MaxRetries = cfg.GeneratorMaxRetries
	retry.TimeoutPerRetry = cfg.GeneratorTimeout
	return retry
}

// SimulationEnabled reports whether a simulator is wired
func (a *Agent) SimulationEnabled() bool {
	return a.simulator != nil
}

// Simulate runs a standalone simulation. Unlike the pipelines, a failed
// simulation is returned as an UPSTREAM_UNAVAILABLE error.
func (a *Agent) Simulate(ctx context.Context, req models.InterpretRequest) (*models.SimulationReport, error) {
	tx, err := normalizeTransaction(req)
	if err != nil {
		return nil, err
	}
	if a.simulator == nil {
		return nil, models.NewUpstreamError("alchemy", errors.New("simulation is not configured"))
	}

	raw, err := a.simulator.SimulateAssetChanges(ctx, tx.simulationRequest())
	report := txtools.SummarizeSimulation(raw, err, tx.From)
	if !report.Available() {
		return nil, models.NewUpstreamError("alchemy", errors.New(report.Error))
	}
	return &report, nil
}

// lookupFacts fetches and normalizes the facts of a single contract
func (a *Agent) lookupFacts(ctx context.Context, address string) (models.TokenFacts, error) {
	records, err := a.facts.TokenSecurity(ctx, []string{address})
	if err != nil {
		return models.TokenFacts{}, models.NewUpstreamError("goplus", err)
	}
	return a.normalizer.Normalize(records, address)
}

// simulate runs the simulator, returning the call error for the caller's stage to degrade on
func (a *Agent) simulate(ctx context.Context, req rpc.SimulationRequest) (models.SimulationReport, error) {
	raw, err := a.simulator.SimulateAssetChanges(ctx, req)
	if err != nil {
		return models.SimulationReport{}, models.NewUpstreamError("alchemy", err)
	}
	return txtools.SummarizeSimulation(raw, nil, req.From), nil
}

// transaction is a validated, normalized InterpretRequest
type transaction struct {
	From  string
	To    string
	Value string
	Data  string
}

func normalizeTransaction(req models.InterpretRequest) (transaction, error) {
	from, err := models.NormalizeAddress("fromAddress", req.FromAddress)
	if err != nil {
		return transaction{}, err
	}
	to, err := models.NormalizeAddress("toAddress", req.ToAddress)
	if err != nil {
		return transaction{}, err
	}
	value, err := models.NormalizeValue(req.Value)
	if err != nil {
		return transaction{}, err
	}
	data, err := models.NormalizeCalldata(req.Data)
	if err != nil {
		return transaction{}, err
	}
	return transaction{From: from, To: to, Value: value, Data: data}, nil
}

func (t transaction) simulationRequest() rpc.SimulationRequest {
	return rpc.SimulationRequest{From: t.From, To: t.To, Value: t.Value, Data: t.Data}
}
