// Package openai implements the scoring port against an OpenAI-compatible
// chat completion API.
package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tiktoken "github.com/pkoukk/tiktoken-go"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/fairyhunter13/ai-resume-screener/internal/adapter/observability"
	"github.com/fairyhunter13/ai-resume-screener/internal/config"
	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
)

const systemPrompt = "You are an expert HR recruiter analyzing resumes."

const promptTemplate = `
You are an expert HR recruiter specializing in data science hiring. Your task is to critically evaluate a candidate's resume against a job description and assign a realistic score out of 10.

Job Description:
%s

Candidate Resume:
%s

Instructions:
1. Compare the candidate's skills, experience, and qualifications to the job description's requirements.
2. Assign a score (0-10) based on the match:
   - 8-10: Excellent match (meets most or all requirements).
   - 5-7: Moderate match (meets some requirements, minor gaps).
   - 0-4: Poor match (significant gaps or irrelevant experience).
3. Provide a concise summary in the following format:
   - Score: [Number, e.g., 7.5]
   - Recommendation: [One-line summary, e.g., "Suitable for the role with minor upskilling."]
   - Strengths: [One-line summary, e.g., "Strong Python and ML experience."]
   - Gaps: [One-line summary, e.g., "Lacks cloud computing expertise."]

Ensure the score reflects the actual fit, avoiding inflated ratings unless fully justified.
`

// chatAPI is the slice of the go-openai client the scorer needs.
type chatAPI interface {
	CreateChatCompletion(ctx domain.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Client scores resumes against job descriptions via chat completions.
// It implements domain.Scorer.
type Client struct {
	api         chatAPI
	model       string
	maxTokens   int
	tokenBudget int
	timeout     time.Duration
	enc         *tiktoken.Tiktoken
}

// New builds a Client from configuration. The returned client is nil-safe
// only through Score, which reports a missing API key as a failure report.
func New(cfg config.Config) *Client {
	var api chatAPI
	if cfg.OpenAIAPIKey != "" {
		oc := goopenai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.OpenAIBaseURL != "" {
			oc.BaseURL = cfg.OpenAIBaseURL
		}
		api = goopenai.NewClientWithConfig(oc)
	}
	return &Client{
		api:         api,
		model:       cfg.ChatModel,
		maxTokens:   cfg.ScoreMaxTokens,
		tokenBudget: cfg.ResumeTokenBudget,
		timeout:     cfg.ScoreTimeout,
		enc:         encodingFor(cfg.ChatModel),
	}
}

func encodingFor(model string) *tiktoken.Tiktoken {
	enc, err := tiktoken.EncodingForModel(model)
	if err == nil {
		return enc
	}
	enc, err = tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		slog.Warn("tiktoken unavailable; resume truncation disabled", slog.Any("error", err))
		return nil
	}
	return enc
}

// Score returns the raw report text for the given resume and job description.
// Every failure mode collapses into a parseable failure report; callers never
// receive an error or an empty string.
func (c *Client) Score(ctx domain.Context, resumeText, jobDescription string) string {
	if c.api == nil {
		return failureReport("missing API key")
	}

	start := time.Now()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: fmt.Sprintf(promptTemplate, jobDescription, c.truncate(resumeText))},
		},
		Temperature: 0.3,
		MaxTokens:   c.maxTokens,
	})
	observability.ScoringRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.ScoringRequestsTotal.WithLabelValues("error").Inc()
		observability.LoggerFromContext(ctx).Warn("scoring call failed",
			slog.String("model", c.model), slog.Any("error", err))
		return failureReport(err.Error())
	}
	if len(resp.Choices) == 0 {
		observability.ScoringRequestsTotal.WithLabelValues("error").Inc()
		return failureReport("empty completion")
	}
	observability.ScoringRequestsTotal.WithLabelValues("ok").Inc()
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return failureReport("empty completion")
	}
	return out
}

// truncate caps resume text at the configured token budget so oversized
// resumes never blow the model's context window.
func (c *Client) truncate(text string) string {
	if c.enc == nil || c.tokenBudget <= 0 {
		return text
	}
	tokens := c.enc.Encode(text, nil, nil)
	if len(tokens) <= c.tokenBudget {
		return text
	}
	return c.enc.Decode(tokens[:c.tokenBudget])
}

func failureReport(reason string) string {
	return fmt.Sprintf("Score: 0\nRecommendation: Analysis failed due to %s\nStrengths: None\nGaps: None", reason)
}
