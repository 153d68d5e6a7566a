package main

import (
	"context"
	"fmt"
	"os"

	"github.com/MosinFAM/redditclone/internal/cli"
)

func main() {
	if err := cli.RootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
