// apictl - command-line editor for the proxy endpoints and response
// templates of managed APIs
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/getmockd/apictl/pkg/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
