// Command boardctl drives a task board from the terminal. Every mutation goes
// through the same optimistic board store a browser view would use, so a
// failed request is rolled back and reported.
package main

import (
	"fmt"
	"os"
)

var Version = "dev"

func main() {
	if err := newRootCmd(os.Stdout, os.Getenv).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
