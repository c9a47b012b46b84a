package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"text/template"
	"time"

	"github.com/phrazzld/recall-api/internal/config"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/generation"
	"google.golang.org/genai"
)

// defaultPromptTemplate instructs the model to emit the responseSchema
// JSON document and nothing else.
const defaultPromptTemplate = `You are a flashcard author. Create concise spaced-repetition
flashcards from the source text below. Each card tests exactly one
fact or concept. Respond with JSON only, no prose, matching:
{"cards":[{"front":"...","back":"...","hint":"...","tags":["..."]}]}

Category: {{.Category}}{{if .Topic}}
Topic: {{.Topic}}{{end}}

Source text:
{{.SourceText}}`

const (
	defaultMaxRetries        = 3
	defaultRetryDelaySeconds = 2
)

// modelCaller is the slice of the genai client the generator uses.
// Narrowed to an interface so tests can substitute a fake.
type modelCaller interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		cfg *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Generator implements the generation.Generator interface backed by
// the Gemini API.
type Generator struct {
	logger         *slog.Logger
	promptTemplate *template.Template
	models         modelCaller
	model          string
	maxRetries     int
	baseRetryDelay time.Duration
}

// Verify interface compliance at compile time
var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Gemini-backed Generator from the LLM config.
// The context is used only for client initialization.
func NewGenerator(ctx context.Context, log *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if log == nil {
		log = slog.Default()
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	promptTemplate, err := template.New("flashcard").Parse(defaultPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	retryDelay := time.Duration(cfg.RetryDelaySeconds) * time.Second
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelaySeconds * time.Second
	}

	return &Generator{
		logger:         log.With(slog.String("component", "gemini_generator")),
		promptTemplate: promptTemplate,
		models:         client.Models,
		model:          cfg.ModelName,
		maxRetries:     maxRetries,
		baseRetryDelay: retryDelay,
	}, nil
}

// GenerateCards implements generation.Generator.GenerateCards.
func (g *Generator) GenerateCards(
	ctx context.Context,
	req generation.Request,
) ([]*domain.Card, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	prompt, err := g.buildPrompt(req)
	if err != nil {
		return nil, err
	}

	response, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	cards, err := g.parseResponse(response, req)
	if err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "cards generated",
		slog.String("user_id", req.UserID.String()),
		slog.String("category", req.Category),
		slog.Int("card_count", len(cards)))
	return cards, nil
}

func (g *Generator) buildPrompt(req generation.Request) (string, error) {
	var buf bytes.Buffer
	err := g.promptTemplate.Execute(&buf, promptData{
		SourceText: req.SourceText,
		Category:   req.Category,
		Topic:      req.Topic,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// callWithRetry calls the API with exponential backoff plus jitter.
// Safety blocks and malformed responses are permanent and returned
// immediately; everything else is treated as transient and retried
// until the attempt budget runs out.
func (g *Generator) callWithRetry(ctx context.Context, prompt string) (*responseSchema, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		g.logger.DebugContext(ctx, "calling Gemini API",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", g.maxRetries+1))

		response, err := g.callOnce(ctx, prompt)
		if err == nil {
			return response, nil
		}
		lastErr = err

		if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
			g.logger.WarnContext(ctx, "permanent generation error",
				slog.String("error", err.Error()))
			return nil, err
		}

		if attempt == g.maxRetries {
			break
		}

		// delay = base * 2^attempt * jitter in [0.5, 1.0)
		backoff := float64(g.baseRetryDelay) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5))

		g.logger.InfoContext(ctx, "retrying Gemini call",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}

	return nil, fmt.Errorf("%w: exceeded %d attempts: %v",
		generation.ErrTransientFailure, g.maxRetries+1, lastErr)
}

func (g *Generator) callOnce(ctx context.Context, prompt string) (*responseSchema, error) {
	resp, err := g.models.GenerateContent(
		ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	return parseModelResponse(resp)
}

// parseModelResponse validates the raw API response and decodes the
// JSON document the prompt asked for.
func parseModelResponse(resp *genai.GenerateContentResponse) (*responseSchema, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: finish reason safety", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return nil, fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: no text in response", generation.ErrInvalidResponse)
	}

	var parsed responseSchema
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v",
			generation.ErrInvalidResponse, err)
	}
	return &parsed, nil
}

// parseResponse turns the decoded schema into domain cards. Any
// invalid card rejects the whole batch; partial persists would leave
// the user with half a generation they already paid quota for.
func (g *Generator) parseResponse(
	response *responseSchema,
	req generation.Request,
) ([]*domain.Card, error) {
	if len(response.Cards) == 0 {
		return nil, fmt.Errorf("%w: no cards in response", generation.ErrInvalidResponse)
	}

	cards := make([]*domain.Card, 0, len(response.Cards))
	for i, schema := range response.Cards {
		if schema.Front == "" {
			return nil, fmt.Errorf("%w: card %d missing front side", generation.ErrInvalidResponse, i)
		}
		if schema.Back == "" {
			return nil, fmt.Errorf("%w: card %d missing back side", generation.ErrInvalidResponse, i)
		}

		content, err := json.Marshal(domain.CardContent{
			Front: schema.Front,
			Back:  schema.Back,
			Hint:  schema.Hint,
			Tags:  schema.Tags,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal card content: %w", err)
		}

		card, err := domain.NewCard(req.UserID, req.Category, content)
		if err != nil {
			return nil, fmt.Errorf("failed to create card: %w", err)
		}
		card.ListName = req.ListName
		card.Topic = req.Topic
		cards = append(cards, card)
	}

	return cards, nil
}
