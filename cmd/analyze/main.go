package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/schollz/progressbar/v3"

	"github.com/tejaspavanb/DeepFake/internal/app"
	"github.com/tejaspavanb/DeepFake/internal/config"
	"github.com/tejaspavanb/DeepFake/internal/dto"
	"github.com/tejaspavanb/DeepFake/internal/logger"
	"github.com/tejaspavanb/DeepFake/internal/model"
	"github.com/tejaspavanb/DeepFake/internal/services/analyzer"
)

type CLI struct {
	Config   string `help:"YAML configuration file" type:"existingfile" env:"CONFIG_FILE"`
	Analyzer string `help:"Analyzer backend, overrides ANALYZER"`
	JSON     bool   `help:"Print the result as JSON"`

	Image ImageCmd `cmd:"" help:"Analyse an image file"`
	Video VideoCmd `cmd:"" help:"Analyse a video file"`
}

type ImageCmd struct {
	File string `arg:"" name:"file" help:"Image to analyse" type:"existingfile"`
}

type VideoCmd struct {
	File string `arg:"" name:"file" help:"Video to analyse" type:"existingfile"`
}

func (cmd *ImageCmd) Run(cli *CLI) error {
	return cli.analyze(cmd.File, model.KindImage)
}

func (cmd *VideoCmd) Run(cli *CLI) error {
	return cli.analyze(cmd.File, model.KindVideo)
}

// loadConfig applies the command-line overrides on top of config.Load.
func (cli *CLI) loadConfig() (*config.Config, error) {
	if cli.Config != "" {
		os.Setenv("CONFIG_FILE", cli.Config)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cli.Analyzer != "" {
		cfg.Analyzer = cli.Analyzer
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (cli *CLI) analyze(path string, kind model.MediaKind) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}

	// Progress and results own stdout; only warnings reach the console.
	log, err := logger.New(cfg.LogDirectory, slog.LevelWarn, os.Stderr, os.Stderr)
	if err != nil {
		return err
	}
	defer log.Close()

	file, err := app.NewIntake(cfg, log).FromPath(path, kind)
	if err != nil {
		return err
	}

	a, err := app.NewAnalyzer(cfg, log)
	if err != nil {
		return err
	}
	if c, ok := a.(interface{ Close() error }); ok {
		defer c.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var bar *progressbar.ProgressBar
	result, err := analyzer.Analyze(ctx, a, analyzer.Request{
		File: file,
		Progress: func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetDescription("🎞️  frames"),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}
			bar.Set(done)
		},
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("analysing %s: %w", path, err)
	}

	if cli.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(dto.FromAnalysis(result))
	}
	printResult(os.Stdout, result)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("analyze"),
		kong.Description("Check an image or video for signs of manipulation."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
