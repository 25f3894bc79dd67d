package limits

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/codex-k8s/kubectl-gateway/internal/constants"
	"github.com/codex-k8s/kubectl-gateway/internal/runtime/approver"
)

// Fields that can carry a FieldPolicy.
const (
	FieldCommand   = "command"
	FieldNamespace = "namespace"
	FieldContext   = "context"
)

// Approver restricts which kubectl subcommands, flags and field values are accepted.
type Approver struct {
	// Name is a human-friendly name.
	Name string
	// Allow lists permitted subcommands; empty permits any. An entry is either
	// a verb ("get") or a verb and its first argument ("auth can-i").
	Allow []string
	// Deny lists forbidden subcommands in the same form, checked after Allow.
	Deny []string
	// DenyFlags lists forbidden flags. Long flags match "--flag" and
	// "--flag=value"; a shorthand such as "-s" also matches "-sVALUE" and
	// clusters like "-As".
	DenyFlags []string
	// FieldPolicies validates request fields by name.
	FieldPolicies map[string]FieldPolicy
}

// FieldPolicy describes validation rules for a single field.
type FieldPolicy struct {
	// Regex validates string value format.
	Regex string
	// MinLength sets string minimum length.
	MinLength *int
	// MaxLength sets string maximum length.
	MaxLength *int
}

// Store keeps compiled rules.
type Store struct {
	policy    Approver
	allow     verbRules
	deny      verbRules
	compiled  map[string]*regexp.Regexp
	denyFlags []string
}

// NewApprover creates a limits approver and validates regex rules.
func NewApprover(policy Approver) (*Store, error) {
	compiled := make(map[string]*regexp.Regexp, len(policy.FieldPolicies))
	for field, fp := range policy.FieldPolicies {
		switch field {
		case FieldCommand, FieldNamespace, FieldContext:
		default:
			return nil, fmt.Errorf("unknown policy field %q", field)
		}
		if fp.Regex == "" {
			continue
		}
		re, err := regexp.Compile(fp.Regex)
		if err != nil {
			return nil, fmt.Errorf("invalid regex for field %s: %w", field, err)
		}
		compiled[field] = re
	}
	flags := make([]string, 0, len(policy.DenyFlags))
	for _, flag := range policy.DenyFlags {
		flag = strings.TrimSpace(flag)
		if flag == "" {
			continue
		}
		if !strings.HasPrefix(flag, "-") {
			return nil, fmt.Errorf("deny flag %q must start with '-'", flag)
		}
		if !strings.HasPrefix(flag, "--") && len(flag) != 2 {
			return nil, fmt.Errorf("shorthand deny flag %q must be a single letter", flag)
		}
		flags = append(flags, flag)
	}
	allow, err := toRules(policy.Allow)
	if err != nil {
		return nil, fmt.Errorf("allow: %w", err)
	}
	deny, err := toRules(policy.Deny)
	if err != nil {
		return nil, fmt.Errorf("deny: %w", err)
	}
	return &Store{
		policy:    policy,
		allow:     allow,
		deny:      deny,
		compiled:  compiled,
		denyFlags: flags,
	}, nil
}

// Name returns approver name for audit and logging.
func (s *Store) Name() string {
	if s.policy.Name != "" {
		return s.policy.Name
	}
	return "limits"
}

// Approve checks field policies and, for arbitrary commands, the subcommand
// and flag rules.
func (s *Store) Approve(_ context.Context, req approver.Request) (approver.Decision, error) {
	if reason := s.checkFields(req); reason != "" {
		return s.denied(reason), nil
	}
	if req.Operation != constants.OperationRun {
		return approver.Decision{Allowed: true, Reason: "approved", Source: s.Name()}, nil
	}

	if len(s.allow) > 0 || len(s.deny) > 0 {
		if req.Verb == "" {
			return s.denied("command must start with a kubectl subcommand"), nil
		}
		if len(s.allow) > 0 && !s.allow.allows(req.Tokens) {
			return s.denied(fmt.Sprintf("subcommand %q is not allowed", subcommand(req.Tokens))), nil
		}
		if s.deny.denies(req.Tokens) {
			return s.denied(fmt.Sprintf("subcommand %q is denied", subcommand(req.Tokens))), nil
		}
	}

	for _, token := range req.Tokens {
		for _, flag := range s.denyFlags {
			if flagMatches(token, flag) {
				return s.denied(fmt.Sprintf("flag %s is denied", flag)), nil
			}
		}
	}

	return approver.Decision{Allowed: true, Reason: "approved", Source: s.Name()}, nil
}

func (s *Store) checkFields(req approver.Request) string {
	for field, value := range presentFields(req) {
		policy, ok := s.policy.FieldPolicies[field]
		if !ok {
			continue
		}
		if policy.MinLength != nil && len(value) < *policy.MinLength {
			return fmt.Sprintf("field %s is too short", field)
		}
		if policy.MaxLength != nil && len(value) > *policy.MaxLength {
			return fmt.Sprintf("field %s is too long", field)
		}
		if re := s.compiled[field]; re != nil && !re.MatchString(value) {
			return fmt.Sprintf("field %s does not match required format", field)
		}
	}
	return ""
}

func (s *Store) denied(reason string) approver.Decision {
	return approver.Decision{Allowed: false, Reason: reason, Source: s.Name()}
}

// presentFields returns the request fields the operation actually consumes.
func presentFields(req approver.Request) map[string]string {
	switch req.Operation {
	case constants.OperationRun:
		return map[string]string{
			FieldCommand:   req.Fragment,
			FieldNamespace: req.Namespace,
			FieldContext:   req.Context,
		}
	case constants.OperationNamespaces:
		return map[string]string{FieldContext: req.Context}
	default:
		return nil
	}
}

// verbRules maps a lowercase verb to the first arguments it is limited to.
// A nil set covers the verb with any arguments.
type verbRules map[string]map[string]struct{}

func toRules(items []string) (verbRules, error) {
	out := make(verbRules, len(items))
	for _, item := range items {
		fields := strings.Fields(strings.ToLower(item))
		switch len(fields) {
		case 0:
			continue
		case 1:
			out[fields[0]] = nil
		case 2:
			subs, seen := out[fields[0]]
			if seen && subs == nil {
				continue
			}
			if subs == nil {
				subs = make(map[string]struct{})
				out[fields[0]] = subs
			}
			subs[fields[1]] = struct{}{}
		default:
			return nil, fmt.Errorf("entry %q has more than two words", item)
		}
	}
	return out, nil
}

// allows requires a limited verb to be followed directly by one of its
// permitted arguments, so "auth --v=1 reconcile" is not read as "auth".
func (r verbRules) allows(tokens []string) bool {
	subs, ok := r.lookup(tokens)
	if !ok {
		return false
	}
	if subs == nil {
		return true
	}
	if len(tokens) < 2 {
		return false
	}
	_, ok = subs[strings.ToLower(tokens[1])]
	return ok
}

// denies matches a limited verb when any later token names a denied
// argument, since cobra accepts flags before the subcommand.
func (r verbRules) denies(tokens []string) bool {
	subs, ok := r.lookup(tokens)
	if !ok {
		return false
	}
	if subs == nil {
		return true
	}
	for _, token := range tokens[1:] {
		if _, ok := subs[strings.ToLower(token)]; ok {
			return true
		}
	}
	return false
}

func (r verbRules) lookup(tokens []string) (map[string]struct{}, bool) {
	if len(tokens) == 0 {
		return nil, false
	}
	subs, ok := r[strings.ToLower(tokens[0])]
	return subs, ok
}

func subcommand(tokens []string) string {
	if len(tokens) > 1 && !strings.HasPrefix(tokens[1], "-") {
		return tokens[0] + " " + tokens[1]
	}
	if len(tokens) > 0 {
		return tokens[0]
	}
	return ""
}

// boolShorthands are kubectl shorthand flags that take no value. pflag keeps
// reading a single-dash cluster past them, so "-As URL" sets -s.
var boolShorthands = map[byte]struct{}{
	'A': {}, 'i': {}, 'q': {}, 'R': {}, 't': {}, 'w': {},
}

// flagMatches reports whether token sets flag. Long flags match "--flag" and
// "--flag=value". A shorthand matches "-s", "-sVALUE", "-s=VALUE" and
// clusters where it follows only boolean shorthands.
func flagMatches(token, flag string) bool {
	if strings.HasPrefix(flag, "--") {
		return token == flag || strings.HasPrefix(token, flag+"=")
	}
	if len(token) < 2 || token[0] != '-' || token[1] == '-' {
		return false
	}
	for i := 1; i < len(token); i++ {
		if token[i] == flag[1] {
			return true
		}
		if _, ok := boolShorthands[token[i]]; !ok {
			return false
		}
	}
	return false
}
