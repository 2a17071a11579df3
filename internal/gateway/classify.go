package gateway

import (
	"context"
	"encoding/json"
	"strings"

	"spendwise/internal/domain"
)

const classifyPrompt = `Classify user messages into two categories:
1. Ending the conversation: messages that indicate the user is concluding the interaction (e.g. "thank you", "okay", "bye", "got it", "that's all").
2. Service-related or other queries: messages where the user is asking for services, making inquiries, or seeking further assistance.

Respond with the following JSON format:
- If the message indicates the end of the conversation: {"response": "YES"}
- If the message is a service-related query or anything else: {"response": "SERVICE"}`

// Classify answers the binary end-of-conversation question for a follow-up
// message. Any reply that does not parse to the published contract maps to
// ContinuationContinue so the user is never stranded.
func (o *OpenAI) Classify(ctx context.Context, text string) (domain.Continuation, error) {
	resp, err := o.chat(ctx, []oaiMessage{
		{Role: "system", Content: classifyPrompt},
		{Role: "user", Content: text},
	}, nil)
	if err != nil {
		return domain.ContinuationContinue, err
	}
	return parseContinuation(resp.Message.Content), nil
}

// parseContinuation maps the classifier reply onto exactly one of the two
// continuation tags. Unparseable content defaults to continue.
func parseContinuation(content string) domain.Continuation {
	content = strings.TrimSpace(content)

	// Strip markdown code fences if present.
	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) >= 3 && strings.HasPrefix(lines[len(lines)-1], "```") {
			content = strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
		}
	}

	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return domain.ContinuationContinue
	}

	if strings.EqualFold(strings.TrimSpace(parsed.Response), "YES") {
		return domain.ContinuationEnd
	}
	return domain.ContinuationContinue
}
