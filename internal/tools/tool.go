package tools

import (
	"context"
	"fmt"
)

// State names the step a pipeline is in
type State string

const (
	StateFetchingHoldings    State = "FETCHING_HOLDINGS"
	StateFetchingMetadata    State = "FETCHING_METADATA"
	StateFetchingFacts       State = "FETCHING_FACTS"
	StateFetchingSimulation  State = "FETCHING_SIMULATION"
	StateClassifying         State = "CLASSIFYING"
	StateGeneratingNarrative State = "GENERATING_NARRATIVE"
	StateDone                State = "DONE"
)

// Stage is one named step of a pipeline over shared state S.
//
// A Required stage aborts the run when it fails. An optional stage that
// fails has its Degrade hook called to leave an explicit unavailable
// marker in the state, and the run continues.
type Stage[S any] struct {
	Name         string
	State        State
	Dependencies []string
	Required     bool
	Run          func(ctx context.Context, state *S) error
	Degrade      func(state *S, err error)
}

// StageError reports which stage of which pipeline failed
type StageError struct {
	Pipeline string `json:"pipeline"`
	Stage    string `json:"stage"`
	State    State  `json:"state"`
	Err      error  `json:"-"`
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s pipeline failed in %s (%s): %v", e.Pipeline, e.Stage, e.State, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
