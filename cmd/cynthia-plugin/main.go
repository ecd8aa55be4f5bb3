// Package main starts a Cynthia plugin process speaking the stdio protocol.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cynthia-web/plugin-sdk-go/internal/cmd/cynthiaplugin"
)

func main() {
	opts, err := cynthiaplugin.ParseArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cynthiaplugin.Run(ctx, opts, os.Stdin, os.Stdout); err != nil {
		// stdout belongs to the host protocol.
		fmt.Fprintf(os.Stdout, "error: %v\n", err)
		os.Exit(1)
	}
}
