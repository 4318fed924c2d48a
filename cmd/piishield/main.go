package main

import (
	"os"

	"github.com/omargawdat/pii-shield/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
