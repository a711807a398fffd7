// Package chat answers visitor questions for the site's chat widget, from
// keyword rules or, when configured, from an LLM.
package chat

import (
	"context"
	"strings"
)

// Reply sources.
const (
	SourceRules = "rules"
	SourceLLM   = "llm"
)

// Message is one prior turn of the conversation.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// Request is a visitor message plus recent history.
type Request struct {
	Message string    `json:"message" validate:"required,max=2000"`
	History []Message `json:"history,omitempty" validate:"max=20,dive"`
}

// Reply is the assistant's answer and where it came from.
type Reply struct {
	Reply  string `json:"reply"`
	Source string `json:"source"`
}

// Responder produces a reply for a chat request.
type Responder interface {
	Respond(ctx context.Context, req Request) (Reply, error)
}

// Rule maps any of a set of keywords to a canned answer.
type Rule struct {
	Keywords []string
	Answer   string
}

// DefaultRules cover the questions visitors ask most.
var DefaultRules = []Rule{
	{
		Keywords: []string{"price", "pricing", "cost", "how much", "quote"},
		Answer:   "Every project is scoped to the business. Most automation setups start with a free 30-minute consultation where we map your workflows and give you a fixed quote.",
	},
	{
		Keywords: []string{"discover", "find businesses", "leads", "prospect"},
		Answer:   "Business Discovery searches Google for businesses in an industry and area, finds a contact email, and scores each one on how much automation could help them.",
	},
	{
		Keywords: []string{"schedule", "booking", "appointment", "calendar"},
		Answer:   "We set up online booking that syncs with your calendar, sends reminders and cuts no-shows, so customers can book without a phone call.",
	},
	{
		Keywords: []string{"review", "reputation", "rating"},
		Answer:   "Automated review requests go out after each job and new reviews are flagged for a quick response, which steadily lifts your rating.",
	},
	{
		Keywords: []string{"chatbot", "chat bot", "ai assistant"},
		Answer:   "A website assistant like this one can answer common questions, capture leads after hours and hand off to you when a human is needed.",
	},
	{
		Keywords: []string{"contact", "call", "email", "talk to"},
		Answer:   "You can reach us through the contact form on this page and we reply within one business day.",
	},
	{
		Keywords: []string{"hello", "hi", "hey"},
		Answer:   "Hi! I can answer questions about automation services, pricing or Business Discovery. What would you like to know?",
	},
}

// DefaultFallback answers anything no rule matches.
const DefaultFallback = "Good question. The best way to get a specific answer is a free consultation. Use the contact form and we will follow up within one business day."

// RuleResponder answers from keyword rules. The first matching rule wins.
type RuleResponder struct {
	rules    []Rule
	fallback string
}

// NewRuleResponder creates a RuleResponder. Nil rules selects DefaultRules.
func NewRuleResponder(rules []Rule, fallback string) *RuleResponder {
	if rules == nil {
		rules = DefaultRules
	}
	if fallback == "" {
		fallback = DefaultFallback
	}
	return &RuleResponder{rules: rules, fallback: fallback}
}

func (r *RuleResponder) Respond(_ context.Context, req Request) (Reply, error) {
	words := tokenize(req.Message)
	msg := " " + strings.Join(words, " ") + " "
	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(msg, " "+kw+" ") || (len(kw) > 3 && strings.Contains(msg, kw)) {
				return Reply{Reply: rule.Answer, Source: SourceRules}, nil
			}
		}
	}
	return Reply{Reply: r.fallback, Source: SourceRules}, nil
}

// tokenize lowercases s and splits it on anything that is not a letter or
// digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}
