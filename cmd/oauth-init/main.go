package main

import (
	"context"
	"fmt"
	"os"
	_ "time/tzdata"

	"bankrecon/internal/cli"
	"bankrecon/internal/commands"
)

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	err := commands.NewAuthCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(commands.ExitCode(err))
	}
}
