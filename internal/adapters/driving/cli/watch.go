package cli

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docqa/internal/adapters/driving/api"
	"github.com/custodia-labs/docqa/internal/connectors/filesystem"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch DIR",
	Short: "Keep a directory ingested into one session",
	Long: `Ingest every supported file under DIR into one session, then ingest new
and modified files as they appear. Files whose content is unchanged are
skipped. Sessions only grow, so deleted files are logged but their text stays
answerable.

The HTTP API is served alongside so questions can be asked against the
session id printed at startup.

Examples:
  docqa watch ./docs
  docqa watch ./docs --addr 127.0.0.1:9000
  docqa watch ./docs --serve=false`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("addr", "", "listen address (default from settings, :8000)")
	watchCmd.Flags().Bool("serve", true, "serve the HTTP API while watching")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return fmt.Errorf("getting addr flag: %w", err)
	}
	serve, err := cmd.Flags().GetBool("serve")
	if err != nil {
		return fmt.Errorf("getting serve flag: %w", err)
	}
	logger.SetTimestamps(true)
	if err := requireCore(cmd.Context()); err != nil {
		return err
	}

	var server *api.Server
	if serve {
		if server, err = newAPIServer(addr); err != nil {
			return err
		}
	}

	watcher := filesystem.New(args[0], ingestService.SupportedExtensions())
	defer watcher.Close()

	ctx := cmd.Context()
	docs, err := watcher.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", args[0], err)
	}

	syncer := newDirSync(ingestService)
	result, err := syncer.add(ctx, docs)
	if err != nil {
		return err
	}
	printIngestResult(cmd, result)

	changes, err := watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watching %s: %w", args[0], err)
	}
	cmd.Printf("Watching %s\n", watcher.Root())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return syncer.follow(gctx, changes)
	})
	if server != nil {
		cmd.Printf("docqa API listening on %s\n", server.Addr())
		g.Go(func() error {
			return server.Run(gctx)
		})
	}
	return g.Wait()
}

// dirSync ingests directory files into one session, skipping unchanged content.
type dirSync struct {
	ingest    driving.IngestService
	sessionID string
	hashes    map[string][sha256.Size]byte
}

func newDirSync(ingest driving.IngestService) *dirSync {
	return &dirSync{
		ingest: ingest,
		hashes: make(map[string][sha256.Size]byte),
	}
}

// SessionID returns the session files are ingested into.
func (d *dirSync) SessionID() string {
	return d.sessionID
}

// add uploads docs whose content changed since they were last seen.
// The first call allocates the session even when docs is empty.
func (d *dirSync) add(ctx context.Context, docs []domain.RawDocument) (*domain.IngestResult, error) {
	fresh := make([]domain.RawDocument, 0, len(docs))
	for _, doc := range docs {
		sum := sha256.Sum256(doc.Content)
		if prev, ok := d.hashes[doc.Filename]; ok && prev == sum {
			logger.Debug("unchanged: %s", doc.Filename)
			continue
		}
		d.hashes[doc.Filename] = sum
		fresh = append(fresh, doc)
	}

	if len(fresh) == 0 && d.sessionID != "" {
		return &domain.IngestResult{SessionID: d.sessionID}, nil
	}

	result, err := d.ingest.Upload(ctx, d.sessionID, fresh)
	if err != nil {
		return nil, fmt.Errorf("ingesting: %w", err)
	}
	d.sessionID = result.SessionID
	return result, nil
}

// handle applies one watcher event.
func (d *dirSync) handle(ctx context.Context, change domain.RawDocumentChange) error {
	name := change.Document.Filename
	if change.Type == domain.ChangeDeleted {
		delete(d.hashes, name)
		logger.Info("%s deleted, its text stays in session %s", name, d.sessionID)
		return nil
	}

	result, err := d.add(ctx, []domain.RawDocument{change.Document})
	if err != nil {
		return err
	}
	for _, f := range result.Uploaded {
		logger.Info("%s %s (%d chars, %d chunks)", change.Type, f.Filename, f.Chars, f.Chunks)
	}
	for _, f := range result.Failed {
		logger.Warn("%s: %s", f.Filename, f.Message())
	}
	return nil
}

// follow applies events until changes closes or ctx is done.
// Ingest failures are logged and do not stop the loop.
func (d *dirSync) follow(ctx context.Context, changes <-chan domain.RawDocumentChange) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if err := d.handle(ctx, change); err != nil {
				logger.Error("%s: %v", change.Document.Filename, err)
			}
		}
	}
}
