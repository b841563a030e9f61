package assistantsvc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/aissist/aissist/core/assistant"
	"github.com/aissist/aissist/core/settings"
)

const defaultTimeout = 30 // seconds

const analyzeSystemPrompt = `You are a task planning assistant. Extract a structured task outline ` +
	`from the user's note and reply with a single JSON object using exactly these keys: ` +
	`"title", "category", "due_date", "start_time", "end_time", "location", "materials", "notes". ` +
	`"category" must be one of MEETING, BUSINESS_TRIP, TRAINING, EVENT, CLASSROOM, TASK, OTHER. ` +
	`"due_date" must be YYYY-MM-DD; "start_time" and "end_time" must be HH:MM (24h). ` +
	`Omit keys you cannot infer. Reply with JSON only, no prose.`

const generateSystemPrompt = `You are a task planning assistant. Write a short, well-organized ` +
	`note for the task outline the user provides. Reply with the note text only.`

// styleInstruction maps a response style preference to a prompt suffix.
func styleInstruction(style string) string {
	switch style {
	case settings.StyleCreative:
		return " Use a lively, creative tone."
	case settings.StylePrecise:
		return " Be terse and strictly factual."
	default:
		return ""
	}
}

func generateUserPrompt(fields assistant.TaskFields) string {
	b, _ := json.Marshal(fields)
	return fmt.Sprintf("Task outline:\n%s", b)
}

// parseTaskFields extracts the first JSON object from a model reply. Models
// occasionally wrap the object in code fences or prose.
func parseTaskFields(reply string) (assistant.TaskFields, error) {
	var fields assistant.TaskFields
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return fields, errors.Errorf("no JSON object in reply: %q", reply)
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), &fields); err != nil {
		return fields, errors.Wrap(err, "decoding task fields")
	}
	return fields, nil
}
