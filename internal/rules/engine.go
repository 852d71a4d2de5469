// Package rules implements the ordered app-rule matcher: the first rule
// whose criteria all match a notification wins, and its overrides are
// applied before the timeout is resolved against the urgency default.
package rules

import (
	"regexp"

	"github.com/jmylchreest/swaynoti/internal/config"
	"github.com/jmylchreest/swaynoti/internal/model"
)

// Engine holds an ordered, immutable table of rules.
type Engine struct {
	rules []config.AppRule
}

// New builds an Engine from the configuration snapshot's rule table.
func New(rules []config.AppRule) *Engine {
	return &Engine{rules: rules}
}

// Outcome is the set of overrides a matched rule applies to a notification.
type Outcome struct {
	RuleName      string
	TimeoutMillis *int64
	Urgency       *int
	SkipHistory   bool
	SkipSound     bool
	SkipDisplay   bool
	Matched       bool
}

// Match finds the first rule whose criteria all match n and returns its
// outcome. If no rule matches, Outcome.Matched is false and every override
// is a no-op.
func (e *Engine) Match(n *model.Notification) Outcome {
	for _, rule := range e.rules {
		if ruleMatches(rule, n) {
			return buildOutcome(rule)
		}
	}
	return Outcome{}
}

func ruleMatches(rule config.AppRule, n *model.Notification) bool {
	if rule.MatchAppName != "" && !matchesPattern(rule.MatchAppName, n.AppName) {
		return false
	}
	if rule.MatchSummary != "" && !matchesPattern(rule.MatchSummary, n.Summary) {
		return false
	}
	if rule.MatchBody != "" && !matchesPattern(rule.MatchBody, n.Body) {
		return false
	}
	if rule.MatchCategory != "" && !matchesPattern(rule.MatchCategory, n.Hints.Category) {
		return false
	}
	if rule.MatchUrgency != "" {
		wantUrgency, ok := model.ParseUrgency(rule.MatchUrgency)
		if !ok || wantUrgency != n.Hints.Urgency {
			return false
		}
	}
	return true
}

// matchesPattern tries pattern as a regular expression first; if it fails
// to compile, falls back to an exact (case-sensitive) string comparison,
// per spec.md §4.3.
func matchesPattern(pattern, value string) bool {
	if re, err := regexp.Compile(pattern); err == nil {
		return re.MatchString(value)
	}
	return pattern == value
}

func buildOutcome(rule config.AppRule) Outcome {
	out := Outcome{
		RuleName:    rule.Name,
		SkipHistory: rule.SkipHistory,
		SkipSound:   rule.SkipSound,
		SkipDisplay: rule.SkipDisplay,
		Matched:     true,
	}
	if rule.SetTimeout != nil {
		out.TimeoutMillis = rule.SetTimeout
	}
	if rule.SetUrgency != "" {
		if u, ok := model.ParseUrgency(rule.SetUrgency); ok {
			out.Urgency = &u
		}
	}
	return out
}

// Apply mutates n in place per the outcome: overriding ExpireTimeout then
// Hints.Urgency, in that order, matching the freedesktop precedence of
// resolving urgency-dependent timeout defaults after any rule-set urgency.
func (o Outcome) Apply(n *model.Notification) {
	if !o.Matched {
		return
	}
	if o.TimeoutMillis != nil {
		n.ExpireTimeout = int32(*o.TimeoutMillis)
	}
	if o.Urgency != nil {
		n.Hints.Urgency = *o.Urgency
	}
}
