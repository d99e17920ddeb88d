package flow

import (
	"strings"

	"github.com/BTreeMap/SiteBot/internal/models"
)

// Substitute replaces {key} placeholders with values from vars in a single
// left-to-right pass. Substituted text is never rescanned, and placeholders
// with no value are left as written.
func Substitute(tmpl string, vars map[string]string) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	var sb strings.Builder
	sb.Grow(len(tmpl))
	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			sb.WriteString(tmpl)
			return sb.String()
		}
		end := strings.IndexByte(tmpl[open+1:], '}')
		if end < 0 {
			sb.WriteString(tmpl)
			return sb.String()
		}
		closeIdx := open + 1 + end
		key := tmpl[open+1 : closeIdx]
		sb.WriteString(tmpl[:open])
		if v, ok := vars[key]; ok && !strings.ContainsAny(key, "{ ") {
			sb.WriteString(v)
			tmpl = tmpl[closeIdx+1:]
			continue
		}
		// Not a known key: emit the brace and resume scanning after it.
		sb.WriteByte('{')
		tmpl = tmpl[open+1:]
	}
}

// templateVars is the bounded key set available to tenant templates: the
// current raw input as {response}, the collected booking fields by field
// name, and every answered step by step id.
func templateVars(state *models.SessionState, response string) map[string]string {
	vars := make(map[string]string, len(state.Responses)+10)
	for id, v := range state.Responses {
		vars[id] = v
	}
	f := state.Fields
	for k, v := range map[string]string{
		string(models.FieldName):     f.Name,
		string(models.FieldPhone):    f.Contact,
		string(models.FieldEmail):    f.Email,
		string(models.FieldAddress):  f.Address,
		string(models.FieldCategory): f.Category,
		string(models.FieldService):  f.Service,
		string(models.FieldDate):     f.ServiceDate,
		string(models.FieldTime):     f.TimeSlot,
	} {
		if v != "" {
			vars[k] = v
		}
	}
	vars["response"] = response
	return vars
}
