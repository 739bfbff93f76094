package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/swpa/internal/buildinfo"
	"github.com/dmitrijs2005/swpa/internal/client/cli"
	"github.com/dmitrijs2005/swpa/internal/client/config"
	"github.com/dmitrijs2005/swpa/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewTextLogger(os.Stderr, cfg.LogLevel)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
