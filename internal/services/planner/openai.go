package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/SebastianMoseres/Praxable/internal/logger"
	"github.com/SebastianMoseres/Praxable/internal/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultModel is the default chat model
	DefaultModel = "gpt-4o-mini"
	// DefaultBaseURL is the default OpenAI-compatible API base URL
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultTranscriptionModel is the speech-to-text model for voice notes
	DefaultTranscriptionModel = openai.AudioModelWhisper1
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	systemPrompt = "You are a planning assistant that extracts structured tasks from free text. Respond with valid JSON only."
)

// APIError is a failed call to the model provider
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("planner API error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
}

// Temporary reports whether retrying later may succeed
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// OpenAIPlanner implements Planner against the chat-completions API
type OpenAIPlanner struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

var (
	_ Planner     = (*OpenAIPlanner)(nil)
	_ Transcriber = (*OpenAIPlanner)(nil)
)

// NewOpenAIPlanner creates a planner. Empty baseURL and model select the defaults.
func NewOpenAIPlanner(apiKey, baseURL, model string, logger *zap.Logger, debugMode bool) *OpenAIPlanner {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
		option.WithMaxRetries(1),
	)

	return &OpenAIPlanner{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// GeneratePlan sends the user's text, values and free slots to the model and
// parses the returned task list.
func (p *OpenAIPlanner) GeneratePlan(ctx context.Context, req Request) (*Plan, error) {
	prompt := buildPrompt(req)
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	if p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "generate_plan"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", logger.SanitizeDebugContent(prompt)),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	latency := time.Since(start)
	if err != nil {
		p.logger.Warn("llm_api_error",
			zap.String("operation", "generate_plan"),
			zap.String("model", p.model),
			zap.Int64("latency_ms", latency.Milliseconds()),
			zap.String("error", logger.SanitizeError(err)),
		)
		return nil, fmt.Errorf("failed to generate plan: %w", toAPIError(err))
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrInvalidPlan)
	}

	content := resp.Choices[0].Message.Content
	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "generate_plan"),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", logger.SanitizeDebugContent(content)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	plan, err := parsePlan(content)
	if err != nil {
		return nil, err
	}
	p.logger.Info("plan_generated",
		zap.Int("tasks", len(plan.Tasks)),
		zap.Int64("latency_ms", latency.Milliseconds()),
	)
	return plan, nil
}

// Transcribe converts a voice note to text with the speech-to-text model
func (p *OpenAIPlanner) Transcribe(ctx context.Context, audio Audio) (string, error) {
	start := time.Now()
	resp, err := p.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(audio.Data, audio.Filename, audio.ContentType),
		Model: DefaultTranscriptionModel,
	})
	latency := time.Since(start)
	if err != nil {
		p.logger.Warn("llm_api_error",
			zap.String("operation", "transcribe"),
			zap.String("model", DefaultTranscriptionModel),
			zap.Int64("latency_ms", latency.Milliseconds()),
			zap.String("error", logger.SanitizeError(err)),
		)
		return "", fmt.Errorf("failed to transcribe audio: %w", toAPIError(err))
	}

	text := strings.TrimSpace(resp.Text)
	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "transcribe"),
			zap.Int("response_length", len(text)),
			zap.String("response_preview", logger.SanitizeDebugContent(text)),
		)
	}
	p.logger.Info("audio_transcribed",
		zap.String("filename", logger.SanitizeString(audio.Filename, 100)),
		zap.Int("transcript_length", len(text)),
		zap.Int64("latency_ms", latency.Milliseconds()),
	)
	return text, nil
}

func toAPIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode: apiErr.StatusCode,
			Code:       apiErr.Code,
			Message:    apiErr.Message,
		}
	}
	return err
}

// parsePlan extracts {"tasks": [...]} from a model response, tolerating
// markdown code fences and surrounding prose.
func parsePlan(content string) (*Plan, error) {
	raw := strings.TrimSpace(content)
	raw = strings.ReplaceAll(raw, "```json", "")
	raw = strings.ReplaceAll(raw, "```", "")
	raw = strings.TrimSpace(raw)
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start > 0 && end > start {
		raw = raw[start : end+1]
	}

	var doc struct {
		Tasks *[]models.PlannedTask `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	if doc.Tasks == nil {
		return nil, fmt.Errorf("%w: missing tasks", ErrInvalidPlan)
	}

	plan := &Plan{Tasks: make([]models.PlannedTask, 0, len(*doc.Tasks))}
	for _, t := range *doc.Tasks {
		t.TaskName = strings.TrimSpace(t.TaskName)
		if t.TaskName == "" {
			continue
		}
		t.TaskType = strings.TrimSpace(t.TaskType)
		t.AlignedValue = strings.TrimSpace(t.AlignedValue)
		t.TimePreference = strings.TrimSpace(t.TimePreference)
		if t.TimePreference == "" {
			t.TimePreference = DefaultTimePreference
		}
		plan.Tasks = append(plan.Tasks, t)
	}
	return plan, nil
}
