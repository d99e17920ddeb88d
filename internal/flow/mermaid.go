package flow

import (
	"fmt"
	"strings"

	"github.com/BTreeMap/SiteBot/internal/models"
)

// Mermaid renders the flow as a Mermaid flowchart. Start steps are drawn as
// stadiums, end steps as circles, and choice branches are labelled with
// their option value.
func Mermaid(def *models.FlowDefinition) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	ids := make(map[string]string, len(def.Steps))
	for i, s := range def.Steps {
		ids[s.StepID] = fmt.Sprintf("s%d", i)
	}
	nodeID := func(stepID string) string {
		if id, ok := ids[stepID]; ok {
			return id
		}
		// Dangling references get their own visibly missing node.
		id := fmt.Sprintf("missing%d", len(ids))
		ids[stepID] = id
		sb.WriteString(fmt.Sprintf("    %s{{\"missing: %s\"}}\n", id, escapeLabel(stepID)))
		return id
	}

	for _, s := range def.Steps {
		label := escapeLabel(s.StepID)
		if q := strings.TrimSpace(s.Question); q != "" {
			label += "<br/>" + escapeLabel(truncate(q, 40))
		}
		switch {
		case s.IsStart:
			sb.WriteString(fmt.Sprintf("    %s([\"%s\"])\n", ids[s.StepID], label))
		case s.IsEnd:
			sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", ids[s.StepID], label))
		default:
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", ids[s.StepID], label))
		}
	}

	for _, s := range def.Steps {
		from := ids[s.StepID]
		if s.Type.IsChoice() {
			for _, oc := range s.OptionConnections {
				if oc.NextStepID == "" {
					continue
				}
				sb.WriteString(fmt.Sprintf("    %s -->|\"%s\"| %s\n", from, escapeLabel(oc.OptionValue), nodeID(oc.NextStepID)))
			}
		}
		if s.DefaultNextStepID != "" {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", from, nodeID(s.DefaultNextStepID)))
		}
	}
	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
