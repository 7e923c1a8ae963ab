package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ndx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Ping asks the server whether it can reach its catalog.
func (r *Runner) Ping(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s is not reachable: %v", shared.ErrServiceUnavailable, r.client.BaseURL(), err)
	}

	if !resp.Success {
		r.logger.Debug("ping failed", "kind", resp.Kind, "error", resp.Error)
		return fmt.Errorf("%w: catalog %s: %s", shared.ErrServiceUnavailable, resp.Kind, resp.Error)
	}

	r.writePlain("✓ %s can reach its catalog\n", r.client.BaseURL())
	return nil
}
