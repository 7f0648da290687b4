package completion

import (
	"context"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mikequentel/dobby/internal/config"
	"github.com/mikequentel/dobby/internal/model"
)

// Client sends chat completions to an OpenAI-compatible endpoint (Fireworks
// by default). Requests are never retried.
type Client struct {
	api         openai.Client
	model       string
	temperature float64 // negative: leave it to the provider
	toolModel   string
	log         *zap.SugaredLogger
}

func New(cfg config.CompletionConfig, apiKey string, log *zap.SugaredLogger, opts ...option.RequestOption) *Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	base := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	return &Client{
		api:         openai.NewClient(append(base, opts...)...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		toolModel:   cfg.ToolModel,
		log:         log,
	}
}

// GenerateReply asks the model to answer triggeringText in the voice set by
// persona and returns the first choice verbatim. The persona may ask for a
// length limit but nothing here enforces it.
func (c *Client) GenerateReply(ctx context.Context, persona, triggeringText string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(persona),
			openai.UserMessage(triggeringText),
		},
	}
	if c.temperature >= 0 {
		params.Temperature = openai.Float(c.temperature)
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		c.log.Errorw("Completion request failed", "model", c.model, "error", err)
		return "", &model.TransportError{Op: "chat completion", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &model.TransportError{Op: "chat completion", Err: errors.New("response has no choices")}
	}

	reply := resp.Choices[0].Message.Content
	c.log.Debugw("Completion received", "model", c.model, "finish_reason", resp.Choices[0].FinishReason, "chars", len([]rune(reply)))
	return reply, nil
}

// Ask sends question with tool attached, using the tool protocol prompt as the
// system instruction, and returns what the model said. When the model answers
// with a native tool call instead of text, the call is rendered in the
// <function=NAME>{args}</function> form so callers only parse one syntax.
// Executing the tool and asking again is up to the caller.
func (c *Client) Ask(ctx context.Context, tool Tool, question string) (string, error) {
	prompt, err := ToolPrompt(tool)
	if err != nil {
		return "", err
	}
	def, err := tool.definition()
	if err != nil {
		return "", err
	}

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.toolModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt),
			openai.UserMessage(question),
		},
		Tools:       []openai.ChatCompletionToolUnionParam{openai.ChatCompletionFunctionTool(def)},
		Temperature: openai.Float(0.1),
	})
	if err != nil {
		c.log.Errorw("Tool completion request failed", "model", c.toolModel, "tool", tool.Name, "error", err)
		return "", &model.TransportError{Op: "chat completion", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &model.TransportError{Op: "chat completion", Err: errors.New("response has no choices")}
	}

	msg := resp.Choices[0].Message
	if strings.TrimSpace(msg.Content) == "" && len(msg.ToolCalls) > 0 {
		call := msg.ToolCalls[0]
		return FormatInvocation(call.Function.Name, call.Function.Arguments), nil
	}
	return msg.Content, nil
}
