package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pyropy/chunkfmt/lib/logger"
	"github.com/urfave/cli/v2"
)

var log, _ = logger.New("chunkfmt")

func main() {
	if err := run(); err != nil {
		log.Fatalln("startup", "ERROR", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:      "chunkfmt",
		Usage:     "Convert a world dimension between region files and a single-file chunk store",
		ArgsUsage: "<world-dir>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of parallel workers, defaults to the number of CPUs",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Chunk store backend: sqlite or leveldb",
			},
		},
		Commands: []*cli.Command{
			packCmd,
			unpackCmd,
		},
	}

	return app.RunContext(ctx, os.Args)
}
