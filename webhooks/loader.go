package webhooks

import (
	"strings"

	"github.com/goliatone/go-quality-hooks/core"
)

const (
	ScopeGlobal  = "webhooks.global"
	ScopeProject = "webhooks.project"
)

var scopes = []string{ScopeGlobal, ScopeProject}

// LoadWebhooks resolves the endpoints declared for analysis, global scope
// first. Each scope keeps at most maxPerScope of its earliest declared ids;
// ids missing a name or url are dropped.
func LoadWebhooks(settings core.Settings, analysis core.Analysis, maxPerScope int) []core.Webhook {
	if settings == nil {
		return nil
	}
	if maxPerScope <= 0 {
		maxPerScope = core.DefaultMaxWebhooksPerScope
	}
	var out []core.Webhook
	for _, scope := range scopes {
		ids := settings.GetStringArray(scope)
		if len(ids) > maxPerScope {
			ids = ids[:maxPerScope]
		}
		for _, id := range ids {
			name, ok := settings.Get(propertyKey(scope, id, "name"))
			if !ok {
				continue
			}
			target, ok := settings.Get(propertyKey(scope, id, "url"))
			if !ok {
				continue
			}
			out = append(out, core.Webhook{
				ProjectUUID:  analysis.ProjectUUID,
				CeTaskUUID:   analysis.CeTaskUUID,
				AnalysisUUID: analysis.AnalysisUUID,
				Name:         name,
				URL:          target,
			})
		}
	}
	return out
}

// HasWebhooks reports whether any scope declares at least one id.
func HasWebhooks(settings core.Settings) bool {
	if settings == nil {
		return false
	}
	for _, scope := range scopes {
		if len(settings.GetStringArray(scope)) > 0 {
			return true
		}
	}
	return false
}

func propertyKey(scope string, id string, field string) string {
	return scope + "." + strings.TrimSpace(id) + "." + field
}
