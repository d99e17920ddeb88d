package flow

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BTreeMap/SiteBot/internal/models"
)

// DefaultBotName is the persona used when a flow names none.
const DefaultBotName = "Assistant"

const defaultSystemPrompt = `You are %s, the website assistant for %s.
Reply in one or two short, friendly sentences. Never invent prices, dates or
availability. If the visitor asks for something outside the conversation,
steer them back to choosing a service.`

// LoadSystemPrompt reads a system prompt template from path. The template
// may use {bot} and {tenant} placeholders.
func LoadSystemPrompt(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		slog.Error("flow.LoadSystemPrompt: failed to read system prompt file", "file", path, "error", err)
		return "", fmt.Errorf("failed to read system prompt file: %w", err)
	}
	prompt := strings.TrimSpace(string(content))
	slog.Info("flow.LoadSystemPrompt: system prompt loaded successfully", "file", path, "length", len(prompt))
	return prompt, nil
}

// systemPrompt renders the persona prompt for a session.
func systemPrompt(tmpl string, state *models.SessionState) string {
	bot, tenant := DefaultBotName, state.TenantCode
	if state.Flow != nil && state.Flow.BotName != "" {
		bot = state.Flow.BotName
	}
	if state.Website != nil && state.Website.Title != "" {
		tenant = state.Website.Title
	}
	if tmpl == "" {
		return fmt.Sprintf(defaultSystemPrompt, bot, tenant)
	}
	return Substitute(tmpl, map[string]string{"bot": bot, "tenant": tenant})
}

// userPrompt serializes the answers so far, the current question and the
// visitor's input. step is nil for free-form turns.
func userPrompt(state *models.SessionState, step *models.Step, input string) string {
	var sb strings.Builder
	if len(state.ResponseOrder) > 0 {
		sb.WriteString("Answers so far:\n")
		for _, id := range state.ResponseOrder {
			fmt.Fprintf(&sb, "%s: %s\n", id, state.Responses[id])
		}
		sb.WriteString("\n")
	}
	if step != nil && step.Question != "" {
		fmt.Fprintf(&sb, "Current question: %s\n", step.Question)
	}
	fmt.Fprintf(&sb, "Visitor: %s", input)
	return sb.String()
}
