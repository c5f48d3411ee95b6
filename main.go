package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/inkwell/internal/auth"
	"github.com/debemdeboas/inkwell/internal/client"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/dom"
	"github.com/debemdeboas/inkwell/internal/editor"
	"github.com/debemdeboas/inkwell/internal/editor/draft"
	"github.com/debemdeboas/inkwell/internal/editor/form"
	"github.com/debemdeboas/inkwell/internal/editor/format"
	"github.com/debemdeboas/inkwell/internal/editor/media"
	"github.com/debemdeboas/inkwell/internal/editor/selection"
	"github.com/debemdeboas/inkwell/internal/logger"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/photos"
	"github.com/debemdeboas/inkwell/internal/repository"
	"github.com/debemdeboas/inkwell/internal/server"
	"github.com/debemdeboas/inkwell/internal/storage"
	"github.com/debemdeboas/inkwell/internal/util/compression"
)

var defaultTags = []model.Tag{
	{ID: "1", Name: "General"},
	{ID: "2", Name: "Programming"},
	{ID: "3", Name: "Travel"},
	{ID: "4", Name: "Photography"},
}

var mainLogger zerolog.Logger

func setLoggers(l zerolog.Logger) {
	mainLogger = l
	auth.SetLogger(l)
	client.SetLogger(l)
	config.SetLogger(l)
	db.SetLogger(l)
	dom.SetLogger(l)
	editor.SetLogger(l)
	draft.SetLogger(l)
	form.SetLogger(l)
	format.SetLogger(l)
	media.SetLogger(l)
	selection.SetLogger(l)
	photos.SetLogger(l)
	repository.SetLogger(l)
	server.SetLogger(l)
	storage.SetLogger(l)
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file loaded")
	}

	if err := config.LoadConfig(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.AppConfig

	setLoggers(logger.New(cfg.Logging.Level, cfg.Logging.Format))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		mainLogger.Fatal().Err(err).Msg("Server stopped")
	}
}

// app holds the wired server and whatever must be released when it stops.
type app struct {
	handler http.Handler
	photos  *photos.Proxy
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			mainLogger.Warn().Err(err).Msg("Failed to release resource")
		}
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	d := db.NewSQLite(cfg.Database.Path)
	if err := d.InitDb(); err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	a.closers = append(a.closers, d.Close)

	codec, err := compression.ForName(cfg.Database.Compression)
	if err != nil {
		a.Close()
		return nil, err
	}
	posts := repository.NewSQLitePostRepository(d, codec)
	if err := seedTags(ctx, posts); err != nil {
		a.Close()
		return nil, err
	}

	store, uploads, err := newMediaStore(ctx, cfg.Storage)
	if err != nil {
		a.Close()
		return nil, err
	}

	var searcher server.PhotoSearcher
	if cfg.Photos.AccessKey != "" {
		a.photos = photos.NewProxy(photos.Options{
			BaseURL:   cfg.Photos.APIURL,
			AccessKey: cfg.Photos.AccessKey,
			PerPage:   cfg.Photos.PerPage,
			CacheTTL:  cfg.Photos.CacheTTL,
		})
		searcher = a.photos
	} else {
		mainLogger.Info().Msg("PHOTOS_ACCESS_KEY is not set, photo search is disabled")
	}

	verifier, err := auth.NewTokenVerifier(cfg.Security.Token)
	if err != nil {
		a.Close()
		return nil, err
	}
	if cfg.Security.Token == "" {
		mainLogger.Warn().Str("token", verifier.Token()).Msg("INKWELL_TOKEN is not set, using a generated token")
	}

	a.handler = server.New(server.Options{
		Handler:       server.NewHandler(posts, store, searcher, int64(cfg.Server.MaxUploadBytes)),
		RequireToken:  verifier.RequireToken(),
		Uploads:       uploads,
		UploadsPrefix: cfg.Storage.URLPrefix,
		Logger:        mainLogger,
	})
	return a, nil
}

// seedTags fills an empty tag table so the editor has something to offer.
func seedTags(ctx context.Context, posts repository.PostRepository) error {
	existing, err := posts.Tags(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	mainLogger.Info().Int("count", len(defaultTags)).Msg("Seeding default tags")
	return posts.SaveTags(ctx, defaultTags...)
}

// newMediaStore returns the configured store and, for the filesystem backend, the handler that
// serves it.
func newMediaStore(ctx context.Context, cfg config.StorageConfig) (storage.MediaStore, http.Handler, error) {
	switch cfg.Backend {
	case "s3":
		c, err := storage.NewS3Client(ctx, storage.S3Options{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.Endpoint != "",
		})
		if err != nil {
			return nil, nil, err
		}
		mainLogger.Info().Str("bucket", cfg.S3.Bucket).Msg("Storing media in S3")
		return storage.NewS3MediaStore(c, cfg.S3.Bucket, cfg.S3.PublicURL), nil, nil
	default:
		if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
			return nil, nil, fmt.Errorf("error creating upload root: %w", err)
		}
		fs := storage.NewFSMediaStore(cfg.Root, cfg.URLPrefix)
		mainLogger.Info().Str("root", cfg.Root).Msg("Storing media on disk")
		return fs, fs.Handler(), nil
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.photos != nil {
		go prunePhotos(ctx, a.photos, cfg.Photos.CacheTTL)
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		mainLogger.Info().Str("addr", srv.Addr).Str("base_url", cfg.Server.BaseURL).Msg("Server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	mainLogger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func prunePhotos(ctx context.Context, p *photos.Proxy, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := p.Prune(); n > 0 {
				mainLogger.Debug().Int("pruned", n).Msg("Pruned photo search cache")
			}
		}
	}
}
