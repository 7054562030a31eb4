package agent

import (
	"context"

	"github.com/walletroast/walletroast/internal/logging"
	"github.com/walletroast/walletroast/internal/metrics"
	"github.com/walletroast/walletroast/internal/models"
	"github.com/walletroast/walletroast/internal/risk"
	txtools "github.com/walletroast/walletroast/internal/tools"
)

const interpretPipeline = "interpret"

type interpretState struct {
	tx             transaction
	simulation     models.SimulationReport
	securityStatus models.SecurityStatus
	assessment     *risk.Assessment
	call           *models.DecodedCall
	floor          models.RiskLevel
	narrative      *txtools.InterpretOutput
}

// InterpretTransaction explains what a transaction will do before it is
// signed. Both the simulation and the security lookup of the destination
// are best-effort: the destination is often not a token at all.
func (a *Agent) InterpretTransaction(ctx context.Context, req models.InterpretRequest) (*models.InterpretationResult, error) {
	tx, err := normalizeTransaction(req)
	if err != nil {
		return nil, err
	}

	state := &interpretState{
		tx:             tx,
		simulation:     txtools.NotAttempted(),
		securityStatus: models.SecurityUnavailable,
	}

	pipeline := txtools.NewPipeline[interpretState](interpretPipeline)
	stages := []txtools.Stage[interpretState]{
		{
			Name:  "simulate",
			State: txtools.StateFetchingSimulation,
			Run: func(ctx context.Context, s *interpretState) error {
				if a.simulator == nil {
					return nil
				}
				report, err := a.simulate(ctx, s.tx.simulationRequest())
				if err != nil {
					return err
				}
				s.simulation = report
				return nil
			},
			Degrade: func(s *interpretState, err error) {
				s.simulation = txtools.SummarizeSimulation(nil, err, s.tx.From)
			},
		},
		{
			Name:  "fetch_facts",
			State: txtools.StateFetchingFacts,
			Run: func(ctx context.Context, s *interpretState) error {
				facts, err := a.lookupFacts(ctx, s.tx.To)
				if models.IsKind(err, models.KindNotFound) {
					s.securityStatus = models.SecurityNoData
					return nil
				}
				if err != nil {
					return err
				}
				assessment := risk.Assess(facts)
				s.assessment = &assessment
				s.securityStatus = models.SecurityAvailable
				return nil
			},
			Degrade: func(s *interpretState, err error) {
				s.securityStatus = models.SecurityUnavailable
			},
		},
		{
			Name:         "classify",
			State:        txtools.StateClassifying,
			Dependencies: []string{"simulate", "fetch_facts"},
			Required:     true,
			Run: func(ctx context.Context, s *interpretState) error {
				var facts *models.TokenFacts
				if s.assessment != nil {
					facts = &s.assessment.Facts
				}
				s.call = txtools.DecodeCalldata(s.tx.Data)
				s.floor = risk.MaxLevel(risk.TransactionLevel(facts, s.simulation), risk.CallLevel(s.call))
				return nil
			},
		},
		{
			Name:         "generate_narrative",
			State:        txtools.StateGeneratingNarrative,
			Dependencies: []string{"classify"},
			Required:     true,
			Run: func(ctx context.Context, s *interpretState) error {
				out, err := a.generator.Interpret(ctx, txtools.InterpretInput{
					From:           s.tx.From,
					To:             s.tx.To,
					Value:          s.tx.Value,
					Data:           s.tx.Data,
					Call:           s.call,
					Simulation:     s.simulation,
					SecurityStatus: s.securityStatus,
					Assessment:     s.assessment,
					Floor:          s.floor,
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

	result := &models.InterpretationResult{
		Summary:        state.narrative.Summary,
		RiskLevel:      state.narrative.RiskLevel,
		Warnings:       state.narrative.Warnings,
		Details:        state.narrative.Details,
		Simulation:     state.simulation,
		Call:           state.call,
		SecurityStatus: state.securityStatus,
	}
	if state.assessment != nil {
		facts := state.assessment.Facts
		verdict := state.assessment.Verdict
		score := state.assessment.Score
		result.Security = &facts
		result.Verdict = &verdict
		result.RiskScore = &score
		metrics.VerdictsTotal.WithLabelValues(interpretPipeline, string(verdict)).Inc()
	}

	logging.L(ctx).Info().
		Str("to", tx.To).
		Str("risk_level", string(result.RiskLevel)).
		Str("floor", string(state.floor)).
		Str("security", string(result.SecurityStatus)).
		Str("simulation", string(result.Simulation.Status)).
		Msg("transaction interpreted")

	return result, nil
}
