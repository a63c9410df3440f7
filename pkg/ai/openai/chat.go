package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/ntria/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
)

// Generate sends a single-turn prompt to the chat model and returns the
// generated completion as plain text.
//
// Example:
//
//	resp, err := client.Generate(ctx, "Summarize the VAT registration rules...")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(resp)
func (c *Client) Generate(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	client := c.ChatClient
	if client == nil {
		return "", ai.ErrNotConfigured
	}

	options := ai.ApplyOptions(ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.3,
		MaxTokens:   800,
	}, opts...)

	msgs := []openai.ChatCompletionMessageParamUnion{}
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	body := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(options.Model),
		Messages:    msgs,
		Temperature: openai.Float(options.Temperature),
	}
	if options.MaxTokens > 0 {
		body.MaxTokens = openai.Int(int64(options.MaxTokens))
	}

	start := time.Now()
	response, err := client.Chat.Completions.New(ctx, body)
	if err != nil {
		return "", classify(err)
	}
	duration := time.Since(start).Milliseconds()

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ai.ErrMalformed)
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   duration,
	})

	return response.Choices[0].Message.Content, nil
}

// GenerateWithFormat sends a prompt to the chat model and unmarshals the
// response into the provided output struct, using a JSON schema to enforce
// structure. The query analyzer and verifier use this to get their
// standalone-query and accuracy judgments in one round trip.
func (c *Client) GenerateWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	client := c.ChatClient
	if client == nil {
		return ai.ErrNotConfigured
	}

	schema := ai.GenerateSchema(out)
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        name,
		Description: openai.String(description),
		Schema:      schema,
		Strict:      openai.Bool(true),
	}

	options := ai.ApplyOptions(ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.1,
		MaxTokens:   800,
	}, opts...)

	msgs := []openai.ChatCompletionMessageParamUnion{}
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(options.Model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
		Messages:    msgs,
		Temperature: openai.Float(options.Temperature),
	}
	if options.MaxTokens > 0 {
		body.MaxTokens = openai.Int(int64(options.MaxTokens))
	}

	start := time.Now()
	response, err := client.Chat.Completions.New(ctx, body)
	if err != nil {
		return classify(err)
	}
	duration := time.Since(start).Milliseconds()

	if len(response.Choices) == 0 {
		return fmt.Errorf("%w: empty choices", ai.ErrMalformed)
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   duration,
	})

	if err := ai.UnmarshalFlexible(response.Choices[0].Message.Content, out); err != nil {
		return fmt.Errorf("%w: %v", ai.ErrMalformed, err)
	}

	return nil
}
