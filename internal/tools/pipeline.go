package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/walletroast/walletroast/internal/logging"
	"github.com/walletroast/walletroast/internal/metrics"
	"github.com/walletroast/walletroast/internal/models"
	"github.com/walletroast/walletroast/internal/tracing"
)

// Pipeline runs stages in dependency order over one request's state
type Pipeline[S any] struct {
	name   string
	stages map[string]Stage[S]
	added  []string
	order  []string
}

// NewPipeline creates an empty pipeline. name labels logs, spans and metrics.
func NewPipeline[S any](name string) *Pipeline[S] {
	return &Pipeline[S]{
		name:   name,
		stages: make(map[string]Stage[S]),
	}
}

// AddStage registers a stage and recalculates the execution order
func (p *Pipeline[S]) AddStage(stage Stage[S]) error {
	if stage.Name == "" || stage.Run == nil {
		return fmt.Errorf("stage must have a name and a run function")
	}
	if _, exists := p.stages[stage.Name]; exists {
		return fmt.Errorf("stage with name %s already exists", stage.Name)
	}

	p.stages[stage.Name] = stage
	p.added = append(p.added, stage.Name)

	// Dependencies may be registered later, only order once they all exist
	if p.missingDependency() != "" {
		p.order = nil
		return nil
	}
	return p.calculateOrder()
}

func (p *Pipeline[S]) missingDependency() string {
	for _, name := range p.added {
		for _, dep := range p.stages[name].Dependencies {
			if _, exists := p.stages[dep]; !exists {
				return fmt.Sprintf("stage %s depends on %s, but %s is not registered", name, dep, dep)
			}
		}
	}
	return ""
}

// calculateOrder determines the execution order based on dependencies
func (p *Pipeline[S]) calculateOrder() error {
	order, err := p.topologicalSort()
	if err != nil {
		return err
	}

	p.order = order
	return nil
}

// topologicalSort orders stages with Kahn's algorithm. Ties keep
// registration order so runs are deterministic.
func (p *Pipeline[S]) topologicalSort() ([]string, error) {
	adjList := make(map[string][]string)
	inDegree := make(map[string]int)

	for _, name := range p.added {
		adjList[name] = []string{}
		inDegree[name] = 0
	}

	for _, name := range p.added {
		for _, dep := range p.stages[name].Dependencies {
			if _, exists := p.stages[dep]; !exists {
				return nil, fmt.Errorf("stage %s depends on %s, but %s is not registered", name, dep, dep)
			}
			adjList[dep] = append(adjList[dep], name)
			inDegree[name]++
		}
	}

	var queue []string
	for _, name := range p.added {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	var result []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, current)

		for _, neighbor := range adjList[current] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(result) != len(p.stages) {
		return nil, fmt.Errorf("circular dependency detected in %s pipeline", p.name)
	}

	return result, nil
}

// Execute runs every stage in order. A failed required stage stops the run
// and its error is returned wrapped in a StageError.
func (p *Pipeline[S]) Execute(ctx context.Context, state *S) (err error) {
	start := time.Now()
	defer func() {
		outcome, reached := "ok", StateDone
		if err != nil {
			outcome = string(models.KindOf(err))
			var stageErr *StageError
			if errors.As(err, &stageErr) {
				reached = stageErr.State
			}
		}
		metrics.PipelineRunsTotal.WithLabelValues(p.name, outcome).Inc()
		logging.L(ctx).Debug().
			Str("pipeline", p.name).
			Str("outcome", outcome).
			Str("state", string(reached)).
			Dur("elapsed", time.Since(start)).
			Msg("pipeline finished")
	}()

	if missing := p.missingDependency(); missing != "" {
		return fmt.Errorf("%s pipeline: %s", p.name, missing)
	}
	if len(p.order) == 0 {
		return fmt.Errorf("no stages registered in %s pipeline", p.name)
	}

	ctx, span := tracing.Tracer("pipeline").Start(ctx, p.name)
	defer func() { tracing.End(span, err) }()

	for _, name := range p.order {
		stage := p.stages[name]

		if ctxErr := ctx.Err(); ctxErr != nil {
			return &StageError{Pipeline: p.name, Stage: stage.Name, State: stage.State, Err: ctxErr}
		}

		if stageErr := p.runStage(ctx, stage, state); stageErr != nil {
			if stage.Required {
				return &StageError{Pipeline: p.name, Stage: stage.Name, State: stage.State, Err: stageErr}
			}

			metrics.StagesDegradedTotal.WithLabelValues(p.name, stage.Name).Inc()
			logging.L(ctx).Warn().
				Err(stageErr).
				Str("pipeline", p.name).
				Str("stage", stage.Name).
				Msg("optional stage failed, continuing without it")
			if stage.Degrade != nil {
				stage.Degrade(state, stageErr)
			}
		}
	}

	return nil
}

func (p *Pipeline[S]) runStage(ctx context.Context, stage Stage[S], state *S) (err error) {
	start := time.Now()
	ctx, span := tracing.Tracer("pipeline").Start(ctx, p.name+"."+stage.Name)
	span.SetAttributes(
		attribute.String("pipeline.state", string(stage.State)),
		attribute.Bool("pipeline.required", stage.Required),
	)
	defer func() {
		metrics.StageDuration.WithLabelValues(p.name, stage.Name).Observe(time.Since(start).Seconds())
		tracing.End(span, err)
	}()

	logging.L(ctx).Debug().Str("pipeline", p.name).Str("stage", stage.Name).Msg("stage started")
	return stage.Run(ctx, state)
}

// GetExecutionOrder returns the current execution order
func (p *Pipeline[S]) GetExecutionOrder() []string {
	result := make([]string, len(p.order))
	copy(result, p.order)
	return result
}
