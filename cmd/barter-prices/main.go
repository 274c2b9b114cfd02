package main

import (
	"context"

	"barter-enhancer/cmd/barter-prices/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
