package extractor

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

const extractionPrompt = `You are an assistant that extracts estimation data from Slack conversation threads. Analyze the following Slack thread and extract the relevant information in JSON format.

EXTRACTION RULES:
1. Fund Name: Extract from the FIRST message in the thread only. Look for phrases like "for ABC Fund", "ABC Fund", or similar patterns.
2. Items: Extract task items mentioned in the most recent part of the conversation. Look for references to "item 1", "item 2", or specific task descriptions.
3. DS Estimation: the Data Science team's estimation, from messages by DS team members. Preserve the exact wording (e.g. "2h", "2-3 days", "2h for annotation, 30m for UI fix"). Never convert units.
4. LE Estimation: the Logic Engineering team's estimation. Preserve the exact wording.
5. QA Estimation: the QA team's estimation. Preserve the exact wording.
6. ClickUp Link: any URL containing "clickup.com" in the most recent part of the conversation.

SUBTASK RECOGNITION:
Common subtask keywords to identify and preserve: UI Fix, checklist fix, CL fix, blueprint fix, BP fix, CL & UI Fix, BP & UI Fix, annotation, ASA Fix & Map, logic, testing, testing 1, testing 2

CONFIDENCE SCORING:
Assign a confidence score between 0.0 and 1.0 to each field:
- High (0.8-1.0): clearly stated with explicit attribution
- Medium (0.5-0.79): implied or inferred from context
- Low (0.0-0.49): uncertain or missing
Use null for the value of any field the thread does not contain.

Return a single JSON object with exactly these keys, matching this JSON schema:
%s

SLACK THREAD TO ANALYZE:
%s

Return ONLY the JSON object, no additional text or explanation.`

var contractSchema = mustSchema()

func mustSchema() string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&Result{})
	schema.Version = ""
	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("marshal extraction schema: %v", err))
	}
	return string(out)
}

// BuildPrompt renders the extraction prompt for a thread.
func BuildPrompt(threadText string) string {
	return fmt.Sprintf(extractionPrompt, contractSchema, threadText)
}
