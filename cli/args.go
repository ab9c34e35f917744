package cli

import "strings"

const (
	execCommand = "exec"
	listCommand = "list"
)

// globalValueOptions take a value and belong in front of the subcommand.
var globalValueOptions = map[string]bool{
	"--executor": true,
	"--config":   true,
}

// commandValueOptions take a value and belong to the subcommand, though
// they may be given before it.
var commandValueOptions = map[string]bool{
	"-n":          true,
	"--namespace": true,
	"-s":          true,
	"--shell":     true,
}

// SplitCommand separates the arguments of crsh from a command given after
// "--".
func SplitCommand(args []string) ([]string, []string) {
	for i, arg := range args {
		if arg == "--" {
			return args[:i], args[i+1:]
		}
	}

	return args, nil
}

// WithDefaultCommand inserts the exec subcommand in front of the first
// positional argument unless a subcommand was named. Subcommand options
// found before it are moved behind it.
func WithDefaultCommand(args []string) []string {
	var global, command []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case globalValueOptions[arg]:
			global = append(global, args[i:min(i+2, len(args))]...)
			i++
		case commandValueOptions[arg]:
			command = append(command, args[i:min(i+2, len(args))]...)
			i++
		case isCommandOption(arg):
			command = append(command, arg)
		case strings.HasPrefix(arg, "-"):
			global = append(global, arg)
		case arg == execCommand || arg == listCommand:
			return withCommand(global, arg, command, args[i+1:])
		default:
			return withCommand(global, execCommand, command, args[i:])
		}
	}

	return args
}

func isCommandOption(arg string) bool {
	name, _, found := strings.Cut(arg, "=")

	return found && commandValueOptions[name]
}

func withCommand(global []string, name string, options, rest []string) []string {
	result := make([]string, 0, len(global)+1+len(options)+len(rest))
	result = append(result, global...)
	result = append(result, name)
	result = append(result, options...)
	return append(result, rest...)
}
