package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/corpopadel/padel-auth/internal/cli"
	"github.com/corpopadel/padel-auth/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app := cli.NewApp(cfg, os.Stdout)

	if err := app.Run(ctx, commandArgs(os.Args[1:])); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}

}

// commandArgs drops the global configuration flags that precede the command.
func commandArgs(args []string) []string {
	for i, a := range args {
		if a == "hash" || a == "reset-password" {
			return args[i:]
		}
	}
	return args
}
