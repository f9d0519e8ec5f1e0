package main

import (
	"context"
	"os"

	"github.com/example/taskly/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
