package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/KeKeBossa/academia-chain-sub001/pkg/app/syncer"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := syncer.NewServer(cfg).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Event sync daemon failed: %v\n", err)
		os.Exit(1)
	}
}
