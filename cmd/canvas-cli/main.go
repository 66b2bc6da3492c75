package main

import (
	"context"

	"canvas-access/cmd/canvas-cli/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
