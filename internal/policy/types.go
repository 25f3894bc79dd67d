package policy

// Config is the top-level policy file.
type Config struct {
	// Name labels the policy in audit records.
	Name string `yaml:"name"`
	// Timeout overrides the per-process execution timeout.
	Timeout string `yaml:"timeout"`
	// Env adds environment variables to every kubectl process.
	Env map[string]string `yaml:"env"`
	// Commands restricts subcommands and flags of arbitrary commands.
	Commands CommandsConfig `yaml:"commands"`
	// Fields validates request fields (command, namespace, context).
	Fields map[string]FieldPolicy `yaml:"fields"`
	// Hooks lists external approval commands run after the built-in rules.
	Hooks []HookConfig `yaml:"hooks"`
}

// CommandsConfig restricts which kubectl invocations are accepted.
type CommandsConfig struct {
	// Allow lists permitted subcommands; empty permits any.
	Allow []string `yaml:"allow"`
	// Deny lists forbidden subcommands.
	Deny []string `yaml:"deny"`
	// DenyFlags lists forbidden flags.
	DenyFlags []string `yaml:"deny_flags"`
}

// FieldPolicy defines validation rules for a request field.
type FieldPolicy struct {
	// Regex validates string value format.
	Regex string `yaml:"regex"`
	// MinLength sets string minimum length.
	MinLength *int `yaml:"min_length"`
	// MaxLength sets string maximum length.
	MaxLength *int `yaml:"max_length"`
}

// HookConfig defines an external approval command.
type HookConfig struct {
	// Name is a human-friendly hook name.
	Name string `yaml:"name"`
	// Command is the executable to run.
	Command string `yaml:"command"`
	// Args are optional arguments.
	Args []string `yaml:"args"`
	// Env adds environment variables for the hook.
	Env map[string]string `yaml:"env"`
	// Timeout limits hook execution time.
	Timeout string `yaml:"timeout"`
	// AllowExitCodes declares additional success exit codes.
	AllowExitCodes []int `yaml:"allow_exit_codes"`
}
