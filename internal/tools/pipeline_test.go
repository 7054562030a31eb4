package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletroast/walletroast/internal/models"
)

type testState struct {
	steps    []string
	degraded map[string]error
}

func step(name string, deps ...string) Stage[testState] {
	return Stage[testState]{
		Name:         name,
		State:        StateClassifying,
		Dependencies: deps,
		Required:     true,
		Run: func(ctx context.Context, s *testState) error {
			s.steps = append(s.steps, name)
			return nil
		},
	}
}

func TestPipeline_DependencyOrder(t *testing.T) {
	p := NewPipeline[testState]("test")
	require.NoError(t, p.AddStage(step("narrative", "classify")))
	require.NoError(t, p.AddStage(step("classify", "facts", "simulation")))
	require.NoError(t, p.AddStage(step("facts")))
	require.NoError(t, p.AddStage(step("simulation", "facts")))

	assert.Equal(t, []string{"facts", "simulation", "classify", "narrative"}, p.GetExecutionOrder())

	var s testState
	require.NoError(t, p.Execute(context.Background(), &s))
	assert.Equal(t, []string{"facts", "simulation", "classify", "narrative"}, s.steps)
}

func TestPipeline_RegistrationOrderBreaksTies(t *testing.T) {
	p := NewPipeline[testState]("test")
	require.NoError(t, p.AddStage(step("b")))
	require.NoError(t, p.AddStage(step("a")))
	require.NoError(t, p.AddStage(step("c")))

	assert.Equal(t, []string{"b", "a", "c"}, p.GetExecutionOrder())
}

func TestPipeline_DuplicateAndCycle(t *testing.T) {
	p := NewPipeline[testState]("test")
	require.NoError(t, p.AddStage(step("a", "b")))
	assert.Error(t, p.AddStage(step("a")))
	assert.Error(t, p.AddStage(step("b", "a")))
}

func TestPipeline_MissingDependency(t *testing.T) {
	p := NewPipeline[testState]("test")
	require.NoError(t, p.AddStage(step("a", "ghost")))

	err := p.Execute(context.Background(), &testState{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestPipeline_RequiredFailureAborts(t *testing.T) {
	p := NewPipeline[testState]("roast")
	require.NoError(t, p.AddStage(Stage[testState]{
		Name:     "facts",
		State:    StateFetchingFacts,
		Required: true,
		Run: func(ctx context.Context, s *testState) error {
			return models.NewNotFoundError("no security data")
		},
	}))
	require.NoError(t, p.AddStage(step("classify", "facts")))

	var s testState
	err := p.Execute(context.Background(), &s)
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "facts", stageErr.Stage)
	assert.Equal(t, StateFetchingFacts, stageErr.State)
	assert.True(t, models.IsKind(err, models.KindNotFound))
	assert.Empty(t, s.steps)
}

func TestPipeline_OptionalFailureDegrades(t *testing.T) {
	upstream := errors.New("simulation provider down")

	p := NewPipeline[testState]("roast")
	require.NoError(t, p.AddStage(Stage[testState]{
		Name:  "simulation",
		State: StateFetchingSimulation,
		Run: func(ctx context.Context, s *testState) error {
			return upstream
		},
		Degrade: func(s *testState, err error) {
			s.degraded = map[string]error{"simulation": err}
		},
	}))
	require.NoError(t, p.AddStage(step("classify", "simulation")))

	var s testState
	require.NoError(t, p.Execute(context.Background(), &s))
	assert.Equal(t, upstream, s.degraded["simulation"])
	assert.Equal(t, []string{"classify"}, s.steps)
}

func TestPipeline_CancelledContext(t *testing.T) {
	p := NewPipeline[testState]("test")
	require.NoError(t, p.AddStage(step("a")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var s testState
	err := p.Execute(ctx, &s)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.steps)
}

func TestPipeline_Empty(t *testing.T) {
	err := NewPipeline[testState]("empty").Execute(context.Background(), &testState{})
	assert.Error(t, err)
}
