package cli

import (
	"context"
	"fmt"
	"time"
)

const defaultStatsScope = "me"

// Upload pushes each path through the upload protocol, bounded by the
// configured concurrency. Per-file progress comes through the orchestrator
// observer; a failed file never stops the others.
func (a *App) Upload(ctx context.Context, paths []string) error {
	return a.uploads.UploadAll(ctx, paths)
}

// List prints the stored files in server order.
func (a *App) List(ctx context.Context) error {
	items, err := a.vault.List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No files yet.")
		return nil
	}
	for _, e := range items {
		fmt.Fprintf(a.out, "%-48s %12d  %s\n", e.Key, e.Size, e.LastModified.Format(time.RFC3339))
	}
	return nil
}

// Stats prints aggregate stats for the given scope (default "me").
func (a *App) Stats(ctx context.Context, args []string) error {
	scope := defaultStatsScope
	if len(args) > 0 {
		scope = args[0]
	}

	s, err := a.vault.Stats(ctx, scope)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Files: %d\n", s.Count)
	fmt.Fprintf(a.out, "Total: %d bytes (%.2f MB)\n", s.TotalBytes, s.TotalMB)
	if s.Computed {
		fmt.Fprintln(a.out, "(computed from the listing)")
	}
	return nil
}

// View prints a short-lived URL for inline viewing of one file.
func (a *App) View(ctx context.Context) error {
	key, err := getSimpleText(a.reader, "Enter file key to view", a.out)
	if err != nil {
		return err
	}
	u, err := a.vault.ViewURL(ctx, key)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, u)
	return nil
}

// Download prints a short-lived URL that forces a download of one file.
func (a *App) Download(ctx context.Context) error {
	key, err := getSimpleText(a.reader, "Enter file key to download", a.out)
	if err != nil {
		return err
	}
	u, err := a.vault.DownloadURL(ctx, key)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, u)
	return nil
}

// Delete removes one stored file after prompting for its key.
func (a *App) Delete(ctx context.Context) error {
	key, err := getSimpleText(a.reader, "Enter file key to delete", a.out)
	if err != nil {
		return err
	}
	if err := a.vault.Delete(ctx, key); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted.")
	return nil
}

// Health probes the API once and reports the result.
func (a *App) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.pinger.Health(ctx); err != nil {
		a.setMode(ModeOffline)
		return err
	}
	a.setMode(ModeOnline)
	fmt.Fprintln(a.out, "API is reachable.")
	return nil
}
