// File path: internal/rag/pipeline.go
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/floatchat/floatchat/internal/common"
	"github.com/floatchat/floatchat/internal/gateway"
	"github.com/floatchat/floatchat/internal/llm"
	"github.com/floatchat/floatchat/internal/retriever"
)

const contextSnippets = 3

// Pipeline runs one question end to end: retrieve context, prompt the
// model, then hand the model's free text to the gateway for SQL
// extraction and execution.
type Pipeline struct {
	provider llm.Provider
	retr     *retriever.Retriever
	gw       *gateway.Gateway
	limit    int
	timeout  time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLimit bounds how many rows chat-originated statements may return.
func WithLimit(limit int) Option {
	return func(p *Pipeline) {
		if limit > 0 {
			p.limit = limit
		}
	}
}

// WithTimeout sets the per-statement execution timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// NewPipeline wires the chat pipeline. The retriever may be nil when no
// dataset summary is available; the prompt then carries no context block.
func NewPipeline(provider llm.Provider, retr *retriever.Retriever, gw *gateway.Gateway, opts ...Option) *Pipeline {
	p := &Pipeline{provider: provider, retr: retr, gw: gw}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Answer produces the gateway outcome for a question. A provider failure
// is returned as an error; everything downstream of a successful model
// call is reported in-band in the outcome.
func (p *Pipeline) Answer(ctx context.Context, question string, mode gateway.Mode, worker string) (gateway.Outcome, error) {
	logger := common.Logger()
	if strings.TrimSpace(question) == "" {
		return gateway.Outcome{}, fmt.Errorf("question required")
	}

	var contextBlock string
	if p.retr != nil {
		results := p.retr.Search(question, contextSnippets)
		snippets := make([]string, 0, len(results))
		for i, res := range results {
			snippets = append(snippets, fmt.Sprintf("[Snippet %d] %s", i+1, res.Doc.Content))
		}
		contextBlock = strings.Join(snippets, "\n\n")
		logger.Debug("rag: collected context", "snippets", len(snippets))
	}

	prompt, err := renderPrompt(question, contextBlock, mode)
	if err != nil {
		return gateway.Outcome{}, err
	}
	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}
	answer, err := p.provider.Chat(ctx, messages)
	if err != nil {
		logger.Error("rag: chat completion failed", "provider", p.provider.Name(), "error", err)
		return gateway.Outcome{}, fmt.Errorf("chat completion: %w", err)
	}
	logger.Info("rag: chat completion succeeded", "provider", p.provider.Name(), "response_length", len(answer))

	out := p.gw.Run(ctx, gateway.Request{
		FreeText: answer,
		Question: question,
		Mode:     mode,
		Limit:    p.limit,
		Timeout:  p.timeout,
		Worker:   worker,
	})
	return out, nil
}
