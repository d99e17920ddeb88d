// Package flow executes tenant-authored conversation flows.
//
// A Graph resolves steps and branches over an immutable FlowDefinition. The
// Engine drives one session through the graph a turn at a time, validating
// input, recording the transcript and running the booking and complaint
// side effects.
package flow

import (
	"github.com/BTreeMap/SiteBot/internal/models"
)

// Graph is a read-only index over a FlowDefinition.
type Graph struct {
	def   *models.FlowDefinition
	steps map[string]*models.Step
	start *models.Step
}

// NewGraph indexes def. The first step flagged isStart is the entry point.
// Duplicate step ids keep their first occurrence.
func NewGraph(def *models.FlowDefinition) *Graph {
	g := &Graph{def: def, steps: make(map[string]*models.Step, len(def.Steps))}
	for i := range def.Steps {
		s := &def.Steps[i]
		if _, dup := g.steps[s.StepID]; !dup {
			g.steps[s.StepID] = s
		}
		if s.IsStart && g.start == nil {
			g.start = s
		}
	}
	return g
}

// Definition returns the underlying flow.
func (g *Graph) Definition() *models.FlowDefinition {
	return g.def
}

// Start returns the entry step, or nil when none is flagged.
func (g *Graph) Start() *models.Step {
	return g.start
}

// Step looks up a step by id. Unknown ids yield nil.
func (g *Graph) Step(id string) *models.Step {
	if id == "" {
		return nil
	}
	return g.steps[id]
}

// Steps returns the flow's steps in authored order.
func (g *Graph) Steps() []models.Step {
	return g.def.Steps
}

// NextStepID returns the id the response routes to: the matching option
// connection for choice steps, else the default next step. Option values
// match exactly and case-sensitively.
func (g *Graph) NextStepID(step *models.Step, response string) string {
	if step == nil {
		return ""
	}
	if step.Type.IsChoice() {
		for _, oc := range step.OptionConnections {
			if oc.OptionValue == response && oc.NextStepID != "" {
				return oc.NextStepID
			}
		}
	}
	return step.DefaultNextStepID
}

// ResolveNext returns the step that follows step for response, or nil when
// the flow ends there. A reference to an unknown step also yields nil.
func (g *Graph) ResolveNext(step *models.Step, response string) *models.Step {
	return g.Step(g.NextStepID(step, response))
}
