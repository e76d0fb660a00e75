package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIProvider implements the Provider interface using OpenAI's API
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// Chat sends the message sequence and tool declarations to the model. When
// the model requests a function call it is dispatched once and the model's
// follow-up text becomes the final answer; chained tool calls are not
// supported.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []ChatMessage, tools []ToolDefinition, dispatch ToolDispatcher) (*ChatResponse, error) {
	requestID := ExtractRequestID(ctx)
	userIDStr := ExtractUserID(ctx)

	openAIMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			openAIMessages = append(openAIMessages, openai.SystemMessage(msg.Content))
		case "assistant":
			openAIMessages = append(openAIMessages, openai.AssistantMessage(msg.Content))
		default:
			openAIMessages = append(openAIMessages, openai.UserMessage(msg.Content))
		}
	}

	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: openAIMessages,
		Tools:    buildTools(tools),
		// Temperature omitted - use model default to avoid "unsupported_value" errors
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "chat"),
			zap.String("model", p.model),
			zap.Int("message_count", len(openAIMessages)),
			zap.Int("tool_count", len(tools)),
			zap.String("user_id", userIDStr),
			zap.String("request_id", requestID),
		)
	}

	startTime := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(startTime)

	if err != nil {
		p.logAPIError("chat", err, userIDStr, requestID, latency)
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to chat: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to chat: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New(ErrNoChoicesInResponse)
	}

	message := resp.Choices[0].Message
	if len(message.ToolCalls) == 0 || dispatch == nil {
		p.logAPIResponse("chat", message.Content, userIDStr, requestID, latency)
		return &ChatResponse{Message: message.Content}, nil
	}

	// One tool round: dispatch the first requested call, feed the result
	// back, and take the follow-up text as the answer.
	call := message.ToolCalls[0]
	result := dispatch(ctx, call.Function.Name, json.RawMessage(call.Function.Arguments))

	req.Messages = append(req.Messages, message.ToParam(), openai.ToolMessage(result, call.ID))
	req.Tools = nil

	startTime = time.Now()
	followUp, err := p.client.Chat.Completions.New(ctx, req)
	latency = time.Since(startTime)

	if err != nil {
		p.logAPIError("chat_tool_resume", err, userIDStr, requestID, latency)
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to resume after tool call: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to resume after tool call: %w", err)
	}

	if len(followUp.Choices) == 0 {
		return nil, errors.New(ErrNoChoicesInResponse)
	}

	content := followUp.Choices[0].Message.Content
	p.logAPIResponse("chat_tool_resume", content, userIDStr, requestID, latency)

	return &ChatResponse{
		Message:    content,
		ToolCalled: call.Function.Name,
	}, nil
}

func buildTools(defs []ToolDefinition) []openai.ChatCompletionToolUnionParam {
	if len(defs) == 0 {
		return nil
	}
	tools := make([]openai.ChatCompletionToolUnionParam, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        def.Name,
			Description: openai.String(def.Description),
			Parameters:  shared.FunctionParameters(def.Parameters),
		}))
	}
	return tools
}

func (p *OpenAIProvider) logAPIError(operation string, err error, userID, requestID string, latency time.Duration) {
	if p.logger == nil || !p.debugMode {
		return
	}
	p.logger.Debug("llm_api_error",
		zap.String("operation", operation),
		zap.String("model", p.model),
		zap.Error(err),
		zap.String("user_id", userID),
		zap.String("request_id", requestID),
		zap.Int64("latency_ms", latency.Milliseconds()),
	)
}

func (p *OpenAIProvider) logAPIResponse(operation, content, userID, requestID string, latency time.Duration) {
	if p.logger == nil || !p.debugMode {
		return
	}
	p.logger.Debug("llm_api_response",
		zap.String("operation", operation),
		zap.String("model", p.model),
		zap.Int("response_length", len(content)),
		zap.String("response_preview", SanitizeResponse(content, true)),
		zap.String("user_id", userID),
		zap.String("request_id", requestID),
		zap.Int64("latency_ms", latency.Milliseconds()),
	)
}
