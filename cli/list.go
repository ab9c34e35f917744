package cli

import (
	"context"
	"fmt"
	"github.com/kinematic-ci/crsh/utils"
	"io"
	"strings"
)

const colWidth = 25

type ListArgs struct {
	Namespace string `arg:"-n,--namespace" help:"Namespace to list targets of"`
}

func List(ctx context.Context, runtime *Runtime, args *ListArgs) int {
	targets, err := runtime.Executor.Targets(ctx, utils.FirstNonEmpty(args.Namespace, runtime.Config.Namespace))

	if err != nil {
		return exitCode(runtime.Stderr, err, false)
	}

	if len(targets) == 0 {
		fmt.Fprintln(runtime.Stdout, "No targets available")
		return ExitOK
	}

	fmt.Fprintln(runtime.Stdout, "Available targets:")
	for _, target := range targets {
		printTwoCols(runtime.Stdout, target.Name, strings.Join(target.Containers, ", "))
	}

	return ExitOK
}

func printTwoCols(out io.Writer, left, right string) {
	lhs := "  " + left
	fmt.Fprint(out, lhs)
	if right != "" {
		if len(lhs)+2 < colWidth {
			fmt.Fprint(out, strings.Repeat(" ", colWidth-len(lhs)))
		} else {
			fmt.Fprint(out, "\n"+strings.Repeat(" ", colWidth))
		}
		fmt.Fprint(out, right)
	}
	fmt.Fprint(out, "\n")
}
