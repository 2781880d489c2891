// Package filter implements the notification matching engine.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"notify_printer/internal/model"
)

// Kind defines the type of filter rule.
type Kind string

// Supported rule kinds.
const (
	Include   Kind = "include"
	Exclude   Kind = "exclude"
	IncludeRe Kind = "include_re"
	ExcludeRe Kind = "exclude_re"
)

// Scope defines which part of the notification a rule matches against.
type Scope string

// Supported rule scopes.
const (
	ScopeTitle Scope = "title"
	ScopeRepo  Scope = "repo"
	ScopeAll   Scope = "all"
)

// Rule is a single filtering rule applied to notifications.
type Rule struct {
	Kind  Kind
	Scope Scope
	Value string
}

// Match checks whether a notification passes the given set of rules.
// If no rules are provided, the notification always passes.
// Include rules use OR logic (at least one must match).
// Exclude rules use AND logic (none must match).
func Match(n model.Notification, rules []Rule) bool {
	if len(rules) == 0 {
		return true
	}

	hasIncludes := false
	anyIncludeMatched := false

	for _, r := range rules {
		switch r.Kind {
		case Include, IncludeRe:
			hasIncludes = true
			if matchesRule(n, r) {
				anyIncludeMatched = true
			}
		case Exclude, ExcludeRe:
			if matchesRule(n, r) {
				return false
			}
		}
	}

	if hasIncludes && !anyIncludeMatched {
		return false
	}
	return true
}

// Apply returns the notifications that pass the rules, preserving order.
func Apply(notifications []model.Notification, rules []Rule) []model.Notification {
	if len(rules) == 0 {
		return notifications
	}
	var passed []model.Notification
	for _, n := range notifications {
		if Match(n, rules) {
			passed = append(passed, n)
		}
	}
	return passed
}

func matchesRule(n model.Notification, r Rule) bool {
	text := textForScope(n, r.Scope)
	switch r.Kind {
	case Include, Exclude:
		return strings.Contains(text, strings.ToLower(r.Value))
	case IncludeRe, ExcludeRe:
		re, err := regexp.Compile("(?i)" + r.Value)
		if err != nil {
			return false
		}
		return re.MatchString(text)
	}
	return false
}

func textForScope(n model.Notification, scope Scope) string {
	switch scope {
	case ScopeTitle:
		return strings.ToLower(n.Title)
	case ScopeRepo:
		return strings.ToLower(n.Repository)
	default:
		return strings.ToLower(n.Title + " " + n.Repository)
	}
}

// ParseRules parses a comma-separated list of kind:scope:value rules,
// e.g. "include:title:release,exclude_re:all:dependabot.*".
func ParseRules(raw string) ([]Rule, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var rules []Rule
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.SplitN(part, ":", 3)
		if len(fields) != 3 {
			return nil, fmt.Errorf("invalid rule %q: want kind:scope:value", part)
		}

		kind := Kind(fields[0])
		switch kind {
		case Include, Exclude, IncludeRe, ExcludeRe:
		default:
			return nil, fmt.Errorf("invalid rule kind %q", fields[0])
		}

		scope := Scope(fields[1])
		switch scope {
		case ScopeTitle, ScopeRepo, ScopeAll:
		default:
			return nil, fmt.Errorf("invalid rule scope %q", fields[1])
		}

		if kind == IncludeRe || kind == ExcludeRe {
			if _, err := regexp.Compile("(?i)" + fields[2]); err != nil {
				return nil, fmt.Errorf("invalid regex in rule %q: %w", part, err)
			}
		}

		rules = append(rules, Rule{Kind: kind, Scope: scope, Value: fields[2]})
	}
	return rules, nil
}
