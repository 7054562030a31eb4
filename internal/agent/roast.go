package agent

import (
	"context"

	"github.com/walletroast/walletroast/internal/logging"
	"github.com/walletroast/walletroast/internal/metrics"
	"github.com/walletroast/walletroast/internal/models"
	"github.com/walletroast/walletroast/internal/risk"
	"github.com/walletroast/walletroast/internal/rpc"
	txtools "github.com/walletroast/walletroast/internal/tools"
)

const roastPipeline = "roast"

type roastState struct {
	contract   string
	from       string
	facts      models.TokenFacts
	simulation models.SimulationReport
	assessment risk.Assessment
	narrative  *txtools.RoastOutput
}

// AssessToken roasts one token contract. Security facts are required; the
// simulation of sending a zero-value transaction from FromAddress is
// best-effort and is reported as FAILED when it cannot run.
func (a *Agent) AssessToken(ctx context.Context, req models.AssessTokenRequest) (*models.AssessmentResult, error) {
	contract, err := models.NormalizeAddress("contractAddress", req.ContractAddress)
	if err != nil {
		return nil, err
	}
	from, err := models.NormalizeOptionalAddress("fromAddress", req.FromAddress)
	if err != nil {
		return nil, err
	}

	state := &roastState{
		contract:   contract,
		from:       from,
		simulation: txtools.NotAttempted(),
	}

	pipeline := txtools.NewPipeline[roastState](roastPipeline)
	stages := []txtools.Stage[roastState]{
		{
			Name:     "fetch_facts",
			State:    txtools.StateFetchingFacts,
			Required: true,
			Run: func(ctx context.Context, s *roastState) error {
				facts, err := a.lookupFacts(ctx, s.contract)
				if err != nil {
					return err
				}
				s.facts = facts
				return nil
			},
		},
		{
			Name:         "simulate",
			State:        txtools.StateFetchingSimulation,
			Dependencies: []string{"fetch_facts"},
			Run: func(ctx context.Context, s *roastState) error {
				if s.from == "" || a.simulator == nil {
					return nil
				}
				report, err := a.simulate(ctx, rpc.SimulationRequest{From: s.from, To: s.contract, Value: "0x0"})
				if err != nil {
					return err
				}
				s.simulation = report
				return nil
			},
			Degrade: func(s *roastState, err error) {
				s.simulation = txtools.SummarizeSimulation(nil, err, s.from)
			},
		},
		{
			Name:         "classify",
			State:        txtools.StateClassifying,
			Dependencies: []string{"fetch_facts"},
			Required:     true,
			Run: func(ctx context.Context, s *roastState) error {
				s.assessment = risk.Assess(s.facts)
				return nil
			},
		},
		{
			Name:         "generate_narrative",
			State:        txtools.StateGeneratingNarrative,
			Dependencies: []string{"classify", "simulate"},
			Required:     true,
			Run: func(ctx context.Context, s *roastState) error {
				out, err := a.generator.Roast(ctx, txtools.RoastInput{
					Address:    s.contract,
					Assessment: s.assessment,
					Simulation: s.simulation,
				})
				if err != nil {
					return err
				}
				s.narrative = out
				return nil
			},
		},
	}
	for _, stage := range stages {
		if err := pipeline.AddStage(stage); err != nil {
			return nil, err
		}
	}

	if err := pipeline.Execute(ctx, state); err != nil {
		return nil, err
	}

	metrics.VerdictsTotal.WithLabelValues(roastPipeline, string(state.assessment.Verdict)).Inc()
	logging.L(ctx).Info().
		Str("contract", contract).
		Str("verdict", string(state.assessment.Verdict)).
		Bool("confirmed_safe", state.assessment.Confirmed).
		Int("score", state.assessment.Score.Total).
		Str("simulation", string(state.simulation.Status)).
		Msg("token roasted")

	return &models.AssessmentResult{
		Address:       contract,
		TokenName:     state.facts.DisplayName(),
		Verdict:       state.assessment.Verdict,
		ConfirmedSafe: state.assessment.Confirmed,
		RiskScore:     state.assessment.Score,
		RiskTags:      state.assessment.Tags,
		Narrative: models.Narrative{
			Roast:    state.narrative.Roast,
			Tip:      state.narrative.Tip,
			Warnings: state.narrative.Warnings,
		},
		Facts:         state.facts,
		Simulation:    state.simulation,
	}, nil
}
