// boatsearch answers natural-language questions about a boat dataset by
// handing the whole table to a chat-completion model.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code. Command output
// goes to out; logs and errors go to errOut.
func run(args []string, out, errOut io.Writer) int {
	root := newRootCmd(out, errOut)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(errOut, "error:", err) //nolint:errcheck
		return 1
	}
	return 0
}
