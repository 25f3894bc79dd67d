package kubectl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// ErrInvalidCommand reports a command fragment that cannot be tokenized.
var ErrInvalidCommand = errors.New("invalid command")

// Flag names appended to every caller-supplied fragment.
const (
	FlagNamespace = "--namespace"
	FlagContext   = "--context"
)

// SplitFragment tokenizes a kubectl argument fragment using POSIX-like quoting.
// Nothing is evaluated: shell operators and substitutions survive as plain
// characters of ordinary arguments.
func SplitFragment(fragment string) ([]string, error) {
	if strings.TrimSpace(fragment) == "" {
		return []string{}, nil
	}
	tokens, err := shlex.Split(fragment)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	if tokens == nil {
		tokens = []string{}
	}
	return tokens, nil
}

// Command is a caller-supplied fragment bound to its target.
type Command struct {
	// Tokens is the tokenized fragment, used for verb and flag checks.
	Tokens []string
	// Args is the full argument vector handed to kubectl.
	Args []string
}

// BuildCommand tokenizes fragment and appends the target flags. Empty
// namespace or context values are passed through unchanged; kubectl rejects
// them itself. The target flags come last because kubectl keeps the last
// occurrence of a repeated flag, so they override any --namespace or
// --context inside the fragment.
func BuildCommand(fragment, namespace, clusterContext string) (Command, error) {
	tokens, err := SplitFragment(fragment)
	if err != nil {
		return Command{}, err
	}
	args := make([]string, 0, len(tokens)+4)
	args = append(args, tokens...)
	args = append(args, FlagNamespace, namespace, FlagContext, clusterContext)
	return Command{Tokens: tokens, Args: args}, nil
}

// NamespacesArgs lists namespaces of a context in the default table format.
func NamespacesArgs(clusterContext string) []string {
	return []string{"get", "namespaces", FlagContext, clusterContext}
}

// ContextsArgs lists context names from the local kubeconfig, one per line.
func ContextsArgs() []string {
	return []string{"config", "get-contexts", "-o", "name"}
}

// VersionArgs returns the argv of the client-only version probe.
func VersionArgs() []string {
	return []string{"version", "--client"}
}

// Verb returns the kubectl subcommand of a tokenized fragment. Only a leading
// token counts: global flags may take values, so "-n get delete" cannot be
// attributed to a verb without kubectl's own flag table.
func Verb(tokens []string) string {
	if len(tokens) == 0 || strings.HasPrefix(tokens[0], "-") {
		return ""
	}
	return tokens[0]
}
