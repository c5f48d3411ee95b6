package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/inkwell/internal/client"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/editor"
	"github.com/debemdeboas/inkwell/internal/editor/draft"
	"github.com/debemdeboas/inkwell/internal/editor/form"
	"github.com/debemdeboas/inkwell/internal/editor/format"
	"github.com/debemdeboas/inkwell/internal/editor/media"
	"github.com/debemdeboas/inkwell/internal/editor/selection"
	"github.com/debemdeboas/inkwell/internal/logger"
	"github.com/debemdeboas/inkwell/internal/replay"
	"github.com/debemdeboas/inkwell/internal/util/compression"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	server := flag.String("server", "", "server base URL, defaults to server.base_url")
	backend := flag.String("drafts", "", "local draft backend (memory, sqlite or redis), defaults to drafts.backend")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] script.yaml\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	if err := config.LoadConfig(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.AppConfig
	if *server != "" {
		cfg.Server.BaseURL = *server
	}
	if *backend != "" {
		cfg.Drafts.Backend = *backend
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	for _, set := range []func(zerolog.Logger){
		config.SetLogger, db.SetLogger, client.SetLogger, replay.SetLogger,
		editor.SetLogger, draft.SetLogger, form.SetLogger, format.SetLogger, media.SetLogger, selection.SetLogger,
	} {
		set(log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, flag.Arg(0)); err != nil {
		log.Fatal().Err(err).Msg("Replay failed")
	}
}

func run(ctx context.Context, cfg *config.Config, path string) error {
	script, err := replay.Load(path)
	if err != nil {
		return err
	}

	c, err := client.New(cfg.Server.BaseURL, cfg.Security.Token)
	if err != nil {
		return err
	}
	tags, err := c.Tags(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}

	codec, err := compression.ForName(cfg.Database.Compression)
	if err != nil {
		return err
	}
	var d db.Db
	if cfg.Drafts.Backend == "sqlite" {
		s := db.NewSQLite(cfg.Database.Path)
		if err := s.InitDb(); err != nil {
			return err
		}
		defer s.Close()
		d = s
	}
	store, closeStore, err := draft.OpenStore(ctx, cfg.Drafts, d, codec)
	if err != nil {
		return err
	}
	defer closeStore()

	report, err := replay.Run(ctx, script, replay.Options{
		Tags:      tags,
		Store:     store,
		Uploader:  c,
		AutoSaver: c,
		Submitter: c,
		Photos:    c,
		Token:     cfg.Security.Token,
		Referral:  cfg.Photos.Referral,
		Editor:    cfg.Editor,
	})
	if err != nil {
		return err
	}

	fmt.Printf("post:     %d\n", report.PostID)
	fmt.Printf("restored: %t\n", report.Restored)
	fmt.Printf("state:    %s\n", report.State)
	fmt.Printf("words:    %d\n", report.Words)
	fmt.Printf("title:    %s\n", report.Fields.Title)
	fmt.Printf("tags:     %s\n", report.Fields.Tags)
	for _, f := range report.Failures {
		fmt.Printf("failed:   %v\n", f)
	}
	fmt.Printf("\n%s\n", report.HTML)

	if len(report.Failures) > 0 {
		return fmt.Errorf("%d of %d steps were rejected", len(report.Failures), len(script.Steps))
	}
	return nil
}
