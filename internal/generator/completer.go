package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Message — одно сообщение диалога с генерирующей способностью.
type Message struct {
	// Role — роль: "system", "user", "assistant".
	Role string `json:"role"`

	// Content — текст сообщения.
	Content string `json:"content"`
}

// CompletionRequest — запрос к генерирующей способности:
// сообщения и схема ожидаемого структурированного ответа.
type CompletionRequest struct {
	// Messages — диалог: системный промпт, задание, корректирующие реплики.
	Messages []Message

	// Schema — JSON Schema ответа. Способность обязана вернуть
	// либо значение по схеме, либо ошибку.
	Schema map[string]any
}

// Completer — внешняя генерирующая способность.
//
// Контракт: принимает промпт и схему вывода, возвращает структурированное
// значение по схеме либо ошибку. Любой ответ вне схемы генератор трактует
// так же, как жёсткую ошибку.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (json.RawMessage, error)
}

// Конфигурация HTTP-клиента по умолчанию.
const (
	defaultCompletionURL     = "https://api.openai.com/v1"
	defaultCompletionModel   = "gpt-4o"
	defaultCompletionTimeout = 120 * time.Second
	toolName                 = "emit_deployment_script"
)

// HTTPCompleter — Completer поверх OpenAI-совместимого chat-completions API.
//
// Структурированный вывод обеспечивается tool call'ом с параметрами,
// ограниченными переданной схемой.
type HTTPCompleter struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPCompleter создаёт HTTP-клиент генерирующей способности.
//
// Конфигурация из окружения: LLM_API_URL, LLM_API_KEY, LLM_MODEL.
func NewHTTPCompleter(logger *slog.Logger) *HTTPCompleter {
	if logger == nil {
		logger = slog.Default()
	}

	baseURL := os.Getenv("LLM_API_URL")
	if baseURL == "" {
		baseURL = defaultCompletionURL
	}
	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = defaultCompletionModel
	}

	return &HTTPCompleter{
		baseURL: baseURL,
		apiKey:  os.Getenv("LLM_API_KEY"),
		model:   model,
		client:  &http.Client{Timeout: defaultCompletionTimeout},
		logger:  logger,
	}
}

// completionPayload — тело запроса chat-completions.
type completionPayload struct {
	Model       string           `json:"model"`
	Messages    []Message        `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens"`
	Tools       []toolDef        `json:"tools"`
	ToolChoice  toolChoiceOption `json:"tool_choice"`
}

type toolDef struct {
	Type     string      `json:"type"`
	Function functionDef `json:"function"`
}

type functionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type toolChoiceOption struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

// completionResponse — тело ответа chat-completions (только нужные поля).
type completionResponse struct {
	Choices []struct {
		Message struct {
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete выполняет один вызов способности.
func (c *HTTPCompleter) Complete(ctx context.Context, req CompletionRequest) (json.RawMessage, error) {
	choice := toolChoiceOption{Type: "function"}
	choice.Function.Name = toolName

	payload := completionPayload{
		Model:       c.model,
		Messages:    req.Messages,
		Temperature: 0.1,
		MaxTokens:   4096,
		Tools: []toolDef{{
			Type: "function",
			Function: functionDef{
				Name:        toolName,
				Description: "Emit a structured deployment script for the given installer.",
				Parameters:  req.Schema,
			},
		}},
		ToolChoice: choice,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read completion response: %w", err)
	}

	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := "completion API error"
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return nil, fmt.Errorf("completion API status %d: %s", resp.StatusCode, msg)
	}

	if len(parsed.Choices) == 0 || len(parsed.Choices[0].Message.ToolCalls) == 0 {
		return nil, fmt.Errorf("completion response has no tool call")
	}

	call := parsed.Choices[0].Message.ToolCalls[0]
	if call.Function.Name != toolName {
		return nil, fmt.Errorf("unexpected tool call %q", call.Function.Name)
	}

	c.logger.Debug("completion received", "model", c.model, "bytes", len(call.Function.Arguments))

	return json.RawMessage(call.Function.Arguments), nil
}
