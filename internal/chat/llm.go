package chat

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/discovery-api/pkg/anthropic"
)

const systemPrompt = `You are the website assistant for a small consultancy that builds automation for local service businesses: online booking, review requests, lead follow-up, quoting and website chat.
Answer in two to four friendly sentences. Do not invent prices; offer a free consultation instead. If asked about something unrelated, steer back to how automation could help their business.`

// LLMResponder answers with an Anthropic model and falls back to another
// Responder when the model call fails or returns nothing.
type LLMResponder struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	fallback  Responder
}

// NewLLMResponder creates an LLMResponder. fallback must not be nil.
func NewLLMResponder(client anthropic.Client, model string, maxTokens int64, timeout time.Duration, fallback Responder) *LLMResponder {
	if maxTokens <= 0 {
		maxTokens = 400
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LLMResponder{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		timeout:   timeout,
		fallback:  fallback,
	}
}

func (r *LLMResponder) Respond(ctx context.Context, req Request) (Reply, error) {
	text, err := r.ask(ctx, req)
	if err != nil {
		zap.L().Warn("llm chat failed, using rules", zap.Error(err))
		return r.fallback.Respond(ctx, req)
	}
	return Reply{Reply: text, Source: SourceLLM}, nil
}

func (r *LLMResponder) ask(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	msgs := make([]anthropic.Message, 0, len(req.History)+1)
	for _, m := range req.History {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		// The Messages API requires the conversation to open with a user turn.
		if len(msgs) == 0 && m.Role != "user" {
			continue
		}
		msgs = append(msgs, anthropic.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, anthropic.Message{Role: "user", Content: req.Message})

	resp, err := r.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     r.model,
		MaxTokens: r.maxTokens,
		System:    systemPrompt,
		Messages:  msgs,
	})
	if err != nil {
		return "", eris.Wrap(err, "chat: llm reply")
	}
	resp.Usage.Log(r.model, "chat")

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", eris.New("chat: llm returned no text")
	}
	return text, nil
}
