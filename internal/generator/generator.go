// Package generator produces grounded answers from retrieved context.
package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
)

// DefaultTimeout bounds a single generation call. A model call that
// exceeds it fails the query rather than leaving it pending.
const DefaultTimeout = 30 * time.Second

// DefaultModel is the chat model used unless configured otherwise.
const DefaultModel = openai.ChatModelGPT4o

// Generator composes the grounding prompt and calls the chat model.
type Generator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// New creates a Generator. Zero values select DefaultModel and
// DefaultTimeout.
func New(client *openai.Client, model string, timeout time.Duration) *Generator {
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Generator{client: client, model: model, timeout: timeout}
}

// Answer generates an answer to query grounded in the given context chunks.
// When formatJSON is set the model is instructed (and constrained) to reply
// as a JSON object with answer and source_clause_excerpt fields.
func (g *Generator) Answer(ctx context.Context, query string, contexts []string, formatJSON bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(BuildPrompt(query, contexts, formatJSON)),
		},
		Model: g.model,
	}
	if formatJSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{Type: "json_object"},
		}
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// BuildPrompt assembles the grounding prompt: the retrieved chunks wrapped
// in explicit context markers, followed by the question and the answer
// format directive.
func BuildPrompt(query string, contexts []string, formatJSON bool) string {
	directive := "Respond naturally."
	if formatJSON {
		directive = "Respond strictly in JSON format as 'answer', 'source_clause_excerpt'."
	}
	return fmt.Sprintf(`You are an assistant answering questions about a document corpus.
Here is the relevant content retrieved from the corpus:

--- START OF CONTEXT ---
%s
--- END OF CONTEXT ---

Now answer the following question based only on the above context:
%q

%s`, strings.Join(contexts, "\n\n"), query, directive)
}
