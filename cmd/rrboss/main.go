package main

import (
	"fmt"
	"os"
)

func main() {
	if err := RegisterWorkloads(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to register workloads: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
