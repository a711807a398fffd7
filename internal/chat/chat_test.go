package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/discovery-api/pkg/anthropic"
)

type mockAnthropic struct {
	mock.Mock
}

func (m *mockAnthropic) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func TestRuleResponder(t *testing.T) {
	r := NewRuleResponder(nil, "")

	tests := []struct {
		msg  string
		want string
	}{
		{"How much does this cost?", DefaultRules[0].Answer},
		{"Can you help me find businesses near me", DefaultRules[1].Answer},
		{"I need online BOOKING", DefaultRules[2].Answer},
		{"hi there", DefaultRules[6].Answer},
		{"this is a thing", DefaultFallback},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			got, err := r.Respond(context.Background(), Request{Message: tt.msg})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Reply)
			assert.Equal(t, SourceRules, got.Source)
		})
	}
}

func TestRuleResponder_ShortKeywordsMatchWholeWords(t *testing.T) {
	r := NewRuleResponder([]Rule{{Keywords: []string{"hi"}, Answer: "hello"}}, "nope")

	got, _ := r.Respond(context.Background(), Request{Message: "which one?"})
	assert.Equal(t, "nope", got.Reply)

	got, _ = r.Respond(context.Background(), Request{Message: "Hi!"})
	assert.Equal(t, "hello", got.Reply)
}

func TestLLMResponder_UsesModel(t *testing.T) {
	client := new(mockAnthropic)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-haiku-4-5-20251001" &&
			len(req.Messages) == 3 &&
			req.Messages[0].Role == "user" &&
			req.Messages[2].Content == "Do you work with roofers?" &&
			req.System != ""
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "  Yes, roofers are a great fit.  "}},
	}, nil)

	r := NewLLMResponder(client, "claude-haiku-4-5-20251001", 0, time.Second, NewRuleResponder(nil, ""))
	got, err := r.Respond(context.Background(), Request{
		Message: "Do you work with roofers?",
		History: []Message{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "Hello!"},
			{Role: "user", Content: " "},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, Reply{Reply: "Yes, roofers are a great fit.", Source: SourceLLM}, got)
	client.AssertExpectations(t)
}

func TestLLMResponder_HistoryOpensWithUserTurn(t *testing.T) {
	client := new(mockAnthropic)
	var sent anthropic.MessageRequest
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(anthropic.MessageRequest) }).
		Return(&anthropic.MessageResponse{
			Content: []anthropic.ContentBlock{{Type: "text", Text: "We start at $99/month."}},
		}, nil)

	r := NewLLMResponder(client, "claude-haiku-4-5-20251001", 0, time.Second, NewRuleResponder(nil, ""))
	got, err := r.Respond(context.Background(), Request{
		Message: "What does it cost?",
		History: []Message{
			{Role: "assistant", Content: "Hi! How can I help?"},
			{Role: "assistant", Content: "Ask me anything."},
			{Role: "user", Content: "I run a plumbing shop"},
			{Role: "assistant", Content: "Great, plumbers are a good fit."},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, SourceLLM, got.Source)
	require.Len(t, sent.Messages, 3)
	assert.Equal(t, "user", sent.Messages[0].Role)
	assert.Equal(t, "I run a plumbing shop", sent.Messages[0].Content)
	assert.Equal(t, "What does it cost?", sent.Messages[2].Content)
	client.AssertExpectations(t)
}

func TestLLMResponder_OnlyAssistantHistory(t *testing.T) {
	client := new(mockAnthropic)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return len(req.Messages) == 1 && req.Messages[0].Role == "user"
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "Sure."}},
	}, nil)

	r := NewLLMResponder(client, "claude-haiku-4-5-20251001", 0, time.Second, NewRuleResponder(nil, ""))
	_, err := r.Respond(context.Background(), Request{
		Message: "hello",
		History: []Message{{Role: "assistant", Content: "Welcome!"}},
	})
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestLLMResponder_FallsBackToRules(t *testing.T) {
	tests := []struct {
		name string
		resp *anthropic.MessageResponse
		err  error
	}{
		{name: "api error", err: errors.New("overloaded")},
		{name: "empty reply", resp: &anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: " "}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(mockAnthropic)
			if tt.resp != nil {
				client.On("CreateMessage", mock.Anything, mock.Anything).Return(tt.resp, nil)
			} else {
				client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			r := NewLLMResponder(client, "m", 100, time.Second, NewRuleResponder(nil, ""))
			got, err := r.Respond(context.Background(), Request{Message: "what is the pricing?"})

			require.NoError(t, err)
			assert.Equal(t, SourceRules, got.Source)
			assert.Equal(t, DefaultRules[0].Answer, got.Reply)
		})
	}
}
