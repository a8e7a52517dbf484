package analysis

import (
	"fmt"
	"strings"
)

const systemPrompt = `You review short texts from local businesses and communities and decide whether they describe an unmet need someone could build a product or service for.
Answer with a single JSON object and nothing else, using these keys:
is_valid_opportunity (bool), title (string, max 80 chars), description (string), category (string), subcategory (string),
severity (int 1-10), opportunity_score (number 0-100), feasibility_score (number 0-100),
market_size_estimate (string), competition_level ("low"|"medium"|"high"), target_audience (string),
risks (array of strings), next_steps (array of strings).`

// maxPromptBytes keeps a single signal from blowing up a request
const maxPromptBytes = 8000

func userPrompt(text, sourceHint string) string {
	if len(text) > maxPromptBytes {
		text = text[:maxPromptBytes]
		text = strings.ToValidUTF8(text, "")
	}
	return fmt.Sprintf("Source: %s\n\nText:\n%s", sourceHint, text)
}
