package executor

const DefaultShell = "/bin/sh"

// ShellCommand builds the argv of an interactive shell. Shells other than
// the default re-export the local TERM through a nested invocation since
// the remote environment does not inherit it.
func ShellCommand(shell, defaultShell string, lookupEnv func(string) (string, bool)) []string {
	if shell == defaultShell {
		return []string{shell}
	}

	term, ok := lookupEnv("TERM")

	if !ok {
		return []string{shell}
	}

	return []string{shell, "-c", "TERM=" + term + " " + shell}
}
