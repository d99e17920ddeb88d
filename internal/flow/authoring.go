package flow

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/BTreeMap/SiteBot/internal/models"
)

// Issue is one authoring problem in a flow definition.
type Issue struct {
	StepID  string `json:"stepId,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.StepID == "" {
		return i.Message
	}
	return fmt.Sprintf("step %q: %s", i.StepID, i.Message)
}

// DefinitionError lists every problem found in a flow definition.
type DefinitionError struct {
	TenantCode string
	Issues     []Issue
}

func (e *DefinitionError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.String()
	}
	return fmt.Sprintf("invalid flow %q: %s", e.TenantCode, strings.Join(parts, "; "))
}

// Unwrap lets callers match models.ErrConfiguration.
func (e *DefinitionError) Unwrap() error {
	return models.ErrConfiguration
}

// ValidateDefinition checks a flow before it is published or used:
// unique step ids, known step types, at least one start and one end step,
// no dangling next-step references, option connections naming declared
// options, valid patterns, every step reachable from a start, and no cycles.
// It returns a *DefinitionError listing all issues, or nil.
func ValidateDefinition(def *models.FlowDefinition) error {
	var issues []Issue
	add := func(stepID, format string, args ...interface{}) {
		issues = append(issues, Issue{StepID: stepID, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(def.TenantCode) == "" {
		add("", "tenant code is required")
	}
	if len(def.Steps) == 0 {
		add("", "flow has no steps")
		return &DefinitionError{TenantCode: def.TenantCode, Issues: issues}
	}

	ids := make(map[string]bool, len(def.Steps))
	var starts []string
	hasEnd := false
	for _, s := range def.Steps {
		if strings.TrimSpace(s.StepID) == "" {
			add("", "step with question %q has no stepId", s.Question)
			continue
		}
		if ids[s.StepID] {
			add(s.StepID, "duplicate stepId")
		}
		ids[s.StepID] = true
		if s.IsStart {
			starts = append(starts, s.StepID)
		}
		if s.IsEnd {
			hasEnd = true
		}
	}
	if len(starts) == 0 {
		add("", "no step is marked isStart")
	}
	if !hasEnd {
		add("", "no step is marked isEnd")
	}

	for i := range def.Steps {
		s := &def.Steps[i]
		if s.StepID == "" {
			continue
		}
		if !models.IsValidStepType(s.Type) {
			add(s.StepID, "unknown step type %q", s.Type)
		}
		if s.FieldType != "" && !models.IsKnownFieldType(s.FieldType) {
			add(s.StepID, "unknown fieldType %q", s.FieldType)
		}
		if s.Validation != nil && s.Validation.Pattern != "" {
			if _, err := regexp.Compile(s.Validation.Pattern); err != nil {
				add(s.StepID, "validation pattern does not compile: %v", err)
			}
		}
		if s.DefaultNextStepID != "" && !ids[s.DefaultNextStepID] {
			add(s.StepID, "defaultNextStepId %q does not exist", s.DefaultNextStepID)
		}
		if len(s.OptionConnections) > 0 && !s.Type.IsChoice() {
			add(s.StepID, "optionConnections on a %s step are never used", s.Type)
		}
		if s.Type.IsChoice() && len(s.Options) == 0 {
			add(s.StepID, "%s step has no options", s.Type)
		}
		declared := make(map[string]bool, len(s.Options))
		for _, o := range s.Options {
			declared[o] = true
		}
		for _, oc := range s.OptionConnections {
			if !declared[oc.OptionValue] {
				add(s.StepID, "option connection for undeclared option %q", oc.OptionValue)
			}
			if oc.NextStepID != "" && !ids[oc.NextStepID] {
				add(s.StepID, "option %q routes to missing step %q", oc.OptionValue, oc.NextStepID)
			}
		}
	}

	g := NewGraph(def)
	for _, id := range unreachable(g, starts) {
		add(id, "step is unreachable from any start step")
	}
	if cycle := findCycle(g); len(cycle) > 0 {
		add(cycle[0], "cycle detected: %s", strings.Join(cycle, " -> "))
	}

	if len(issues) == 0 {
		return nil
	}
	return &DefinitionError{TenantCode: def.TenantCode, Issues: issues}
}

// successors returns the distinct existing step ids reachable in one move.
func successors(g *Graph, s *models.Step) []string {
	seen := make(map[string]bool)
	var out []string
	push := func(id string) {
		if id != "" && !seen[id] && g.Step(id) != nil {
			seen[id] = true
			out = append(out, id)
		}
	}
	if s.Type.IsChoice() {
		for _, oc := range s.OptionConnections {
			push(oc.NextStepID)
		}
	}
	push(s.DefaultNextStepID)
	return out
}

func unreachable(g *Graph, starts []string) []string {
	visited := make(map[string]bool)
	queue := append([]string(nil), starts...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		queue = append(queue, successors(g, g.Step(id))...)
	}
	var out []string
	for _, s := range g.Steps() {
		if s.StepID != "" && !visited[s.StepID] {
			out = append(out, s.StepID)
		}
	}
	sort.Strings(out)
	return out
}

// findCycle returns one cycle as a path of step ids ending where it
// started, or nil when the graph is acyclic.
func findCycle(g *Graph) []string {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int)
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = grey
		stack = append(stack, id)
		for _, next := range successors(g, g.Step(id)) {
			switch color[next] {
			case grey:
				for i, sid := range stack {
					if sid == next {
						cycle = append(append([]string(nil), stack[i:]...), next)
						return true
					}
				}
			case white:
				if visit(next) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, s := range g.Steps() {
		if s.StepID != "" && color[s.StepID] == white && g.Step(s.StepID) != nil {
			if visit(s.StepID) {
				return cycle
			}
		}
	}
	return nil
}
