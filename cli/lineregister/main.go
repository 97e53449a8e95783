// Package main is the lineregister command itself.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"go.viam.com/lineregistration/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.RunContext(ctx, os.Args); err != nil {
		cancel()
		//nolint:gocritic
		log.Fatal(err)
	}
}
