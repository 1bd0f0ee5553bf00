package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/scrumlink/internal/client/cli"
	"github.com/dmitrijs2005/scrumlink/internal/client/config"
	"github.com/dmitrijs2005/scrumlink/internal/logging"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewTextLogger(os.Stderr, cfg.LogLevel)
	app := cli.NewApp(cfg, logger)

	app.Run(ctx)

}
