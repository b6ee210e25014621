// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package responder

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Layouts interpolated into {time} and {date}.
const (
	TimeLayout = "3:04 PM"
	DateLayout = "Monday, January 2, 2006"
)

// DefaultBotName is substituted for {bot} when no name is configured.
const DefaultBotName = "ChatBot"

// ============================================================================
// ENGINE
// ============================================================================

// Reply is the outcome of matching one input.
type Reply struct {
	Text string
	Rule string
}

// Engine matches input against rules. It is safe for concurrent use.
type Engine struct {
	rules     []Rule
	fallbacks []string
	botName   string
	now       func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used by the time and date rules.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRand sets the random source for fallback selection.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithRules replaces the rule list.
func WithRules(rules []Rule) Option {
	return func(e *Engine) {
		e.rules = normalizeRules(rules)
	}
}

// WithFallbacks replaces the fallback pool. An empty pool is ignored.
func WithFallbacks(pool []string) Option {
	return func(e *Engine) {
		if len(pool) > 0 {
			e.fallbacks = append([]string(nil), pool...)
		}
	}
}

// WithBotName sets the name used in the name rule.
func WithBotName(name string) Option {
	return func(e *Engine) {
		if strings.TrimSpace(name) != "" {
			e.botName = strings.TrimSpace(name)
		}
	}
}

// New creates an engine with the default rules and fallback pool.
func New(opts ...Option) *Engine {
	e := &Engine{
		rules:     normalizeRules(DefaultRules()),
		fallbacks: DefaultFallbacks(),
		botName:   DefaultBotName,
		now:       time.Now,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reply returns the reply text for userText.
func (e *Engine) Reply(userText string) string {
	return e.Respond(userText).Text
}

// Respond returns the reply for userText along with the rule that produced
// it. Callers must not pass empty input.
func (e *Engine) Respond(userText string) Reply {
	if rule, ok := e.Match(userText); ok {
		return Reply{Text: e.render(rule.Template), Rule: rule.Name}
	}
	return Reply{Text: e.fallback(), Rule: RuleFallback}
}

// Match returns the first rule that matches userText.
func (e *Engine) Match(userText string) (Rule, bool) {
	q := Normalize(userText)
	for _, rule := range e.rules {
		if matches(rule, q) {
			return rule, true
		}
	}
	return Rule{}, false
}

// BotName returns the configured bot name.
func (e *Engine) BotName() string {
	return e.botName
}

// Fallbacks returns a copy of the fallback pool.
func (e *Engine) Fallbacks() []string {
	return append([]string(nil), e.fallbacks...)
}

func (e *Engine) fallback() string {
	e.mu.Lock()
	i := e.rng.IntN(len(e.fallbacks))
	e.mu.Unlock()
	return e.fallbacks[i]
}

func (e *Engine) render(tmpl string) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	now := e.now()
	r := strings.NewReplacer(
		"{bot}", e.botName,
		"{time}", now.Format(TimeLayout),
		"{date}", now.Format(DateLayout),
	)
	return r.Replace(tmpl)
}

// ============================================================================
// MATCHING
// ============================================================================

// Normalize folds text for matching: NFKC compatibility form, case folded,
// with curly apostrophes straightened and surrounding space trimmed.
func Normalize(s string) string {
	return strings.TrimSpace(fold(s))
}

func fold(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.ReplaceAll(s, "’", "'")
}

func matches(rule Rule, q string) bool {
	for _, kw := range rule.Exact {
		if q == kw {
			return true
		}
	}
	for _, kw := range rule.Keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// normalizeRules folds keywords so custom rules match the same way input does.
func normalizeRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = r
		out[i].Keywords = foldAll(r.Keywords, fold)
		out[i].Exact = foldAll(r.Exact, Normalize)
	}
	return out
}

// foldAll folds every entry with f. Keywords keep their spaces so "hi "
// stays a word boundary.
func foldAll(in []string, f func(string) string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = f(s); strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
