package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"go.uber.org/zap"

	"github.com/sparkqual/sparkqual/internal/observability"
	"github.com/sparkqual/sparkqual/pkg/analysis"
	"github.com/sparkqual/sparkqual/pkg/source"
	s3source "github.com/sparkqual/sparkqual/pkg/source/s3"
)

// resolveSources expands CLI arguments into event-log sources.
// Arguments starting with s3:// resolve against the object store;
// everything else is a local file or directory.
func resolveSources(ctx context.Context, args []string) ([]source.Source, error) {
	var local []string
	var out []source.Source

	for _, arg := range args {
		if !strings.HasPrefix(arg, "s3://") {
			local = append(local, arg)
			continue
		}

		bucket, prefix, err := splitS3URI(arg)
		if err != nil {
			return nil, exitError(foundry.ExitInvalidArgument, "Invalid S3 URI", err)
		}
		store, err := s3source.New(ctx, s3source.Config{
			Bucket:         bucket,
			Region:         cfg.Source.S3.Region,
			Endpoint:       cfg.Source.S3.Endpoint,
			Profile:        cfg.Source.S3.Profile,
			ForcePathStyle: cfg.Source.S3.ForcePathStyle,
			RateLimit:      cfg.Source.S3.RateLimit,
			MaxKeys:        cfg.Source.S3.MaxKeys,
		})
		if err != nil {
			return nil, exitError(foundry.ExitExternalServiceUnavailable, "Failed to connect to object storage", err)
		}
		keys, err := store.List(ctx, prefix)
		if err != nil {
			return nil, exitError(foundry.ExitExternalServiceUnavailable, "Failed to list event logs", err)
		}
		for _, k := range keys {
			out = append(out, store.ObjectSource(k))
		}
	}

	if len(local) > 0 {
		discovered, err := source.Discover(local, cfg.Source.Glob)
		if err != nil {
			return nil, exitError(foundry.ExitInvalidArgument, "Invalid event-log inputs", err)
		}
		out = append(out, discovered...)
	}

	if len(out) == 0 {
		return nil, exitError(foundry.ExitInvalidArgument, "No event logs found", errors.New("no inputs matched"))
	}
	return out, nil
}

func splitS3URI(uri string) (bucket, prefix string, err error) {
	rest := strings.TrimPrefix(uri, "s3://")
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("invalid S3 URI %q", uri)
	}
	return bucket, prefix, nil
}

// runBatch resolves sources and analyzes them with per-app isolation.
// Failed applications are logged and dropped from the returned set.
func runBatch(ctx context.Context, args []string, accelerated bool) ([]*analysis.Session, error) {
	sources, err := resolveSources(ctx, args)
	if err != nil {
		return nil, err
	}

	results := analysis.AnalyzeBatch(ctx, sources, cfg.Source.Concurrency, analysis.Options{
		Accelerated: accelerated,
		Logger:      observability.CLILogger,
	})

	sessions := make([]*analysis.Session, 0, len(results))
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		sessions = append(sessions, r.Session)
	}

	observability.CLILogger.Info("Batch analysis complete",
		zap.Int("applications", len(sessions)),
		zap.Int("failed", failed))

	if len(sessions) == 0 {
		return nil, exitError(foundry.ExitFileReadError, "All applications failed to analyze",
			fmt.Errorf("%d of %d event logs unreadable", failed, len(results)))
	}
	return sessions, nil
}

// exitError creates an error that will cause the CLI to exit with the given code.
func exitError(code int, message string, err error) error {
	return fmt.Errorf("%s: %w (exit code %d)", message, err, code)
}
