package main

import (
	"errors"
	"fmt"

	"github.com/pyropy/chunkfmt/core/converter"
	"github.com/pyropy/chunkfmt/core/upgrade"
	"github.com/urfave/cli/v2"
)

var conversionFlags = []cli.Flag{
	&cli.IntFlag{
		Name:  "level",
		Usage: "zstd compression level of the chunk store, 0 to 22",
	},
	&cli.StringFlag{
		Name:  "fixers",
		Usage: "YAML file with upgrade rules applied to old chunks",
	},
	&cli.IntFlag{
		Name:  "data-version",
		Usage: "Data version stamped on chunks written back to region files",
	},
	&cli.StringFlag{
		Name:  "region-compression",
		Usage: "Compression of region file chunks: zlib, gzip or none",
	},
	&cli.DurationFlag{
		Name:  "progress-interval",
		Usage: "How often progress is logged",
	},
}

var packCmd = &cli.Command{
	Name:      "pack",
	Aliases:   []string{"sqlite"},
	Usage:     "Pack region files of a dimension into the chunk store",
	ArgsUsage: "<world-dir>",
	Flags:     conversionFlags,
	Action:    convertAction(converter.DirectionPack),
}

var unpackCmd = &cli.Command{
	Name:      "unpack",
	Aliases:   []string{"region"},
	Usage:     "Unpack the chunk store of a dimension into region files",
	ArgsUsage: "<world-dir>",
	Flags:     conversionFlags,
	Action:    convertAction(converter.DirectionUnpack),
}

func convertAction(direction converter.Direction) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		worldDir := ctx.Args().First()
		if worldDir == "" {
			return errors.New("missing world directory")
		}

		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}

		dim, err := converter.ResolveDimension(worldDir)
		if err != nil {
			return err
		}

		opts := []converter.Option{}
		if cfg.Fixers != "" {
			fixer, err := upgrade.LoadRules(cfg.Fixers, cfg.DataVersion)
			if err != nil {
				return err
			}
			log.Infow("upgrade rules", "file", cfg.Fixers, "steps", len(fixer.Steps()), "target", fixer.Target())
			opts = append(opts, converter.WithUpgrader(fixer))
		}

		c, err := converter.New(*cfg, dim, opts...)
		if err != nil {
			return err
		}

		log.Infow("run", "id", c.RunID().String(), "direction", direction, "dimension", dim.Dir, "skylight", dim.HasSkyLight)

		summary, err := c.Run(ctx.Context, direction)
		if summary != nil {
			printSummary(summary)
		}

		if errors.Is(err, converter.ErrPreconditionFailed) {
			fmt.Println(err)
			return nil
		}

		return err
	}
}

// loadConfig reads the environment and applies command line overrides.
func loadConfig(ctx *cli.Context) (*converter.Config, error) {
	cfg, err := converter.GetConfig()
	if err != nil {
		return nil, err
	}

	if ctx.IsSet("workers") {
		cfg.Workers = ctx.Int("workers")
	}
	if ctx.IsSet("backend") {
		cfg.Backend = ctx.String("backend")
	}
	if ctx.IsSet("level") {
		cfg.CompressionLevel = ctx.Int("level")
	}
	if ctx.IsSet("fixers") {
		cfg.Fixers = ctx.String("fixers")
	}
	if ctx.IsSet("data-version") {
		cfg.DataVersion = int32(ctx.Int("data-version"))
	}
	if ctx.IsSet("region-compression") {
		cfg.RegionCompression = ctx.String("region-compression")
	}
	if ctx.IsSet("progress-interval") {
		cfg.ProgressInterval = ctx.Duration("progress-interval")
	}

	return cfg, nil
}
