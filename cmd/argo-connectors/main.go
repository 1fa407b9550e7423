package main

import (
	"context"
	"log"

	"github.com/deksa89/argo-connectors/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Fatalf("❌ argo-connectors failed: %v", err)
	}
}
