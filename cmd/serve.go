package main

import (
	"context"
	"net/http"
	"time"

	"github.com/desertthunder/ndx/internal/server"
	"github.com/desertthunder/ndx/internal/services"
	"github.com/urfave/cli/v3"
)

const catalogTimeout = 30 * time.Second

// Serve runs the HTTP backend until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config
	if cmd.IsSet("host") {
		cfg.Serve.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Serve.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("web-dir") {
		cfg.Serve.WebDir = cmd.String("web-dir")
	}

	if err := cfg.ValidateNavidrome(); err != nil {
		return err
	}

	catalog := services.NewSubsonicService(
		cfg.Navidrome.URL, cfg.Navidrome.User, cfg.Navidrome.Password,
		&http.Client{Timeout: catalogTimeout},
	).WithSongCount(cfg.Navidrome.SongCount)

	srv := server.New(server.Options{
		Catalog:        catalog,
		Logger:         r.logger,
		AllowedOrigins: cfg.Serve.AllowedOrigins,
		WebDir:         cfg.Serve.WebDir,
		Version:        version,
		RateLimit:      cfg.Navidrome.RateLimit,
		CatalogURL:     cfg.Navidrome.URL,
		CatalogUser:    cfg.Navidrome.User,
	})

	return srv.ListenAndServe(ctx, cfg.Serve.Addr())
}
