// Package ai turns free text (voice transcripts, chat messages) into staging candidates using an LLM.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/focus-board/internal/models"
	"github.com/benvon/focus-board/internal/request"
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

	// MaxProposals caps how many candidates a single request may yield
	MaxProposals = 20

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

const systemPrompt = `You extract actionable tasks from what a user said or typed.
Respond with valid JSON only, shaped as {"tasks":[...]}. Each task may have:
"title" (required, short imperative), "summary", "priority" (LOW|MEDIUM|HIGH|URGENT),
"energy" (LOW|MEDIUM|HIGH), "estimate_min" (integer minutes), "due_at" (RFC3339),
"labels" (array of short lowercase words), "confidence" (0 to 1, how sure you are this is a real task).
Leave out any field you cannot infer. Return {"tasks":[]} if nothing is actionable.`

// OpenAIProposer implements task proposal using OpenAI's API
type OpenAIProposer struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
	now       func() time.Time
}

// NewOpenAIProposer creates a new proposer. Empty baseURL and model fall back to the defaults.
func NewOpenAIProposer(apiKey string, baseURL string, model string, log *zap.Logger, debugMode bool) *OpenAIProposer {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
	)

	return &OpenAIProposer{
		client:    client,
		model:     model,
		logger:    log,
		debugMode: debugMode,
		now:       time.Now,
	}
}

// ProposeTasks asks the model for tasks found in text and returns them as staging input tagged with source.
// The result is untrusted; staging applies its own defaults and checks.
func (p *OpenAIProposer) ProposeTasks(ctx context.Context, text string, source models.StagedTaskSource) ([]models.StagedTaskInput, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []models.StagedTaskInput{}, nil
	}

	prompt := buildProposalPrompt(text, p.now())
	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	requestID := request.RequestID(ctx)
	if p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "propose_tasks"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		p.logger.Warn("llm_api_error",
			zap.String("operation", "propose_tasks"),
			zap.String("model", p.model),
			zap.Error(err),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to propose tasks: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to propose tasks: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content
	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "propose_tasks"),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return parseProposalResponse(content, source)
}

func buildProposalPrompt(text string, now time.Time) string {
	var b strings.Builder
	b.WriteString("Current date and time: ")
	b.WriteString(now.Format(time.RFC3339))
	b.WriteString(" (")
	b.WriteString(now.Weekday().String())
	b.WriteString(")\nResolve relative dates such as \"tomorrow\" or \"next Friday\" against it.\n\n")
	b.WriteString("Text:\n")
	b.WriteString(text)
	return b.String()
}

type proposedTask struct {
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Priority    string   `json:"priority"`
	Energy      string   `json:"energy"`
	EstimateMin int      `json:"estimate_min"`
	DueAt       string   `json:"due_at"`
	Labels      []string `json:"labels"`
	Confidence  *float64 `json:"confidence"`
}

// parseProposalResponse decodes the model output, tolerating prose around the JSON object.
// Fields the model got wrong are dropped rather than failing the whole batch.
func parseProposalResponse(content string, source models.StagedTaskSource) ([]models.StagedTaskInput, error) {
	var proposal struct {
		Tasks []proposedTask `json:"tasks"`
	}

	raw := strings.TrimSpace(content)
	if err := json.Unmarshal([]byte(raw), &proposal); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end <= start {
			return nil, fmt.Errorf("failed to parse proposal response: %w", err)
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &proposal); err != nil {
			return nil, fmt.Errorf("failed to parse proposal response: %w", err)
		}
	}

	inputs := make([]models.StagedTaskInput, 0, len(proposal.Tasks))
	for _, t := range proposal.Tasks {
		if len(inputs) == MaxProposals {
			break
		}
		title := strings.TrimSpace(t.Title)
		if title == "" {
			continue
		}

		input := models.StagedTaskInput{
			Title:      title,
			Source:     source,
			Confidence: t.Confidence,
		}
		if summary := strings.TrimSpace(t.Summary); summary != "" {
			input.Summary = &summary
		}
		if p := models.Priority(strings.ToUpper(t.Priority)); p.IsValid() {
			input.Priority = p
		}
		if e := models.EnergyLevel(strings.ToUpper(t.Energy)); e.IsValid() {
			input.Energy = e
		}
		if t.EstimateMin > 0 {
			estimate := t.EstimateMin
			input.EstimateMin = &estimate
		}
		if due, err := time.Parse(time.RFC3339, t.DueAt); err == nil {
			input.DueAt = &due
		}
		for _, label := range t.Labels {
			label = strings.ToLower(strings.TrimSpace(label))
			if label != "" {
				input.Labels = append(input.Labels, label)
			}
		}
		inputs = append(inputs, input)
	}

	return inputs, nil
}
