// Package newsletter drafts a markdown newsletter from recent news using a
// Gemini chat session that can call back into a news.Provider.
package newsletter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/dgallion1/linkpost/internal/news"
)

const DefaultModel = "gemini-1.5-flash"

// Newsletter is one generated issue.
type Newsletter struct {
	Markdown    string    `json:"markdown"`
	HTML        string    `json:"html"`
	Sources     []Source  `json:"sources"`
	GeneratedAt time.Time `json:"generated_at"`
}

// chat is the part of *genai.ChatSession the agent drives.
type chat interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Options struct {
	APIKey        string
	Model         string
	MaxToolRounds int
}

// Agent generates newsletters. It is safe for concurrent use; each Generate
// call runs its own chat session.
type Agent struct {
	client    *genai.Client
	news      news.Provider
	stats     *LLMStats
	maxRounds int
	log       *slog.Logger
	now       func() time.Time
	newChat   func() chat
}

func NewAgent(ctx context.Context, opts Options, provider news.Provider, stats *LLMStats, log *slog.Logger) (*Agent, error) {
	if opts.APIKey == "" {
		return nil, errors.New("newsletter: google api key is required")
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	model := client.GenerativeModel(opts.Model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(SystemInstruction)}}
	model.Tools = []*genai.Tool{newsTool}

	a := newAgent(provider, stats, opts.MaxToolRounds, log)
	a.client = client
	a.newChat = func() chat { return model.StartChat() }
	return a, nil
}

func newAgent(provider news.Provider, stats *LLMStats, maxRounds int, log *slog.Logger) *Agent {
	if maxRounds <= 0 {
		maxRounds = 5
	}
	if stats == nil {
		stats = NewLLMStats(time.Hour)
	}
	return &Agent{
		news:      provider,
		stats:     stats,
		maxRounds: maxRounds,
		log:       log,
		now:       time.Now,
	}
}

// Stats returns the latency tracker shared by all Generate calls.
func (a *Agent) Stats() *LLMStats { return a.stats }

// Generate runs one chat: the instruction goes in, the model may call the
// news tools up to maxRounds times, and its final text answer is rendered.
func (a *Agent) Generate(ctx context.Context, instruction string) (*Newsletter, error) {
	now := a.now().UTC()
	cs := a.newChat()
	parts := []genai.Part{genai.Text(BuildPrompt(instruction, now))}

	for round := 0; ; round++ {
		start := time.Now()
		resp, err := cs.SendMessage(ctx, parts...)
		a.stats.Record(time.Since(start), err)
		if err != nil {
			return nil, classifyError(err)
		}

		calls, text := splitResponse(resp)
		if len(calls) == 0 {
			text = strings.TrimSpace(text)
			if text == "" {
				return nil, errors.New("gemini returned an empty answer")
			}
			nl, err := Render(text)
			if err != nil {
				return nil, err
			}
			nl.GeneratedAt = now
			return nl, nil
		}
		if round >= a.maxRounds {
			return nil, fmt.Errorf("gemini still calling tools after %d rounds", a.maxRounds)
		}

		parts = make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			a.log.Debug("newsletter tool call", "round", round, "tool", call.Name, "args", call.Args)
			parts = append(parts, a.dispatch(ctx, call, now))
		}
	}
}

func splitResponse(resp *genai.GenerateContentResponse) ([]genai.FunctionCall, string) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ""
	}
	var (
		calls []genai.FunctionCall
		text  strings.Builder
	)
	for _, p := range resp.Candidates[0].Content.Parts {
		switch v := p.(type) {
		case genai.Text:
			text.WriteString(string(v))
		case genai.FunctionCall:
			calls = append(calls, v)
		case *genai.FunctionCall:
			calls = append(calls, *v)
		}
	}
	return calls, text.String()
}

// RetryableError indicates a transient Gemini failure.
type RetryableError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func (e *RetryableError) Unwrap() error { return e.Err }

func classifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	code := 0
	var ae *apierror.APIError
	if errors.As(err, &ae) {
		code = ae.HTTPCode()
	}
	var ge *googleapi.Error
	if code <= 0 && errors.As(err, &ge) {
		code = ge.Code
	}
	if code == 429 || code >= 500 {
		return &RetryableError{StatusCode: code, Message: err.Error(), Err: err}
	}
	return fmt.Errorf("gemini: %w", err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Close releases the Gemini client.
func (a *Agent) Close() error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}
