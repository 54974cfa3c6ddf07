package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"autoflow/internal/metrics"
	"autoflow/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// TranslationResult is the structured automation definition produced from a
// free-text description. Both the service path and the fallback path return
// this same shape, so callers never branch on how it was produced.
type TranslationResult struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Trigger     string                 `json:"trigger"`
	Actions     []models.Action        `json:"actions"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Translator turns a natural-language description into a structured action
// list. Implementations must always return a usable result; external-service
// failures are absorbed, not surfaced.
type Translator interface {
	Translate(ctx context.Context, description string) TranslationResult
}

// systemInstruction constrains the model to the expected output schema.
const systemInstruction = "You are an automation assistant. Convert user descriptions into structured automation steps. Return JSON with: name, description, trigger, actions (array of steps), parameters."

// OpenAITranslator translates descriptions through the OpenAI chat
// completions API.
type OpenAITranslator struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration
	client  *http.Client
	logger  *logrus.Logger
}

// NewOpenAITranslator builds the production translator. timeout bounds the
// external call; expiry is treated as a translation failure, not a hang.
func NewOpenAITranslator(apiKey, baseURL, model string, timeout time.Duration, logger *logrus.Logger) *OpenAITranslator {
	if logger == nil {
		logger = logrus.New()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAITranslator{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		timeout: timeout,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Translate sends the description to the completion API and parses the reply
// into a TranslationResult. Any failure falls back to a single-step log
// automation, so creation never fails on translator unavailability.
func (t *OpenAITranslator) Translate(ctx context.Context, description string) TranslationResult {
	if t.apiKey == "" {
		t.logger.Debug("translator: no API key configured, using fallback")
		metrics.IncTranslatorFallback()
		return FallbackTranslation(description)
	}

	result, err := t.callOpenAI(ctx, description)
	if err != nil {
		t.logger.Warnf("translator: falling back to log automation: %v", err)
		metrics.IncTranslatorFallback()
		return FallbackTranslation(description)
	}
	return result
}

func (t *OpenAITranslator) callOpenAI(ctx context.Context, description string) (TranslationResult, error) {
	tracer := otel.Tracer("autoflow/translator")
	ctx, span := tracer.Start(ctx, "OpenAITranslator.callOpenAI")
	span.SetAttributes(attribute.String("model", t.model))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	request := openAIRequest{
		Model: t.model,
		Messages: []message{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: fmt.Sprintf("Create an automation from this description: %s", description)},
		},
		Temperature: 0.2,
		MaxTokens:   1000,
	}

	reqBody, err := json.Marshal(request)
	if err != nil {
		return TranslationResult{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", t.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return TranslationResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", t.apiKey))

	resp, err := t.client.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return TranslationResult{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TranslationResult{}, fmt.Errorf("failed to read response: %w", err)
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return TranslationResult{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if openAIResp.Error != nil {
		span.SetStatus(codes.Error, openAIResp.Error.Message)
		return TranslationResult{}, fmt.Errorf("OpenAI API error: %s", openAIResp.Error.Message)
	}
	if len(openAIResp.Choices) == 0 {
		span.SetStatus(codes.Error, "no response choices")
		return TranslationResult{}, fmt.Errorf("no response from OpenAI")
	}

	var result TranslationResult
	if err := json.Unmarshal([]byte(openAIResp.Choices[0].Message.Content), &result); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return TranslationResult{}, fmt.Errorf("failed to parse automation definition: %w", err)
	}
	if result.Name == "" || len(result.Actions) == 0 {
		span.SetStatus(codes.Error, "incomplete automation definition")
		return TranslationResult{}, fmt.Errorf("incomplete automation definition in response")
	}
	if result.Trigger == "" {
		result.Trigger = models.TriggerManual
	}
	if result.Parameters == nil {
		result.Parameters = map[string]interface{}{}
	}
	return result, nil
}

// FallbackTranslation is the deterministic translation used when the external
// service cannot produce one: a manual, single-step log automation carrying
// the original description.
func FallbackTranslation(description string) TranslationResult {
	return TranslationResult{
		Name:        "Automation-" + uuid.NewString()[:8],
		Description: description,
		Trigger:     models.TriggerManual,
		Actions:     []models.Action{{Type: models.ActionLog, Message: description}},
		Parameters:  map[string]interface{}{},
	}
}
