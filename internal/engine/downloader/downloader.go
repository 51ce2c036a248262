// Package downloader materializes artifacts on disk behind a content-hash gate.
package downloader

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/modman/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.Downloader = (*Downloader)(nil)

// Downloader fetches artifacts concurrently. A failed item never affects its siblings.
type Downloader struct {
	fetcher     ports.Fetcher
	progress    ports.Progress
	metrics     ports.Metrics
	tracer      ports.Tracer
	logger      ports.Logger
	concurrency int
}

// New creates a new Downloader. concurrency below 1 selects GOMAXPROCS.
func New(
	fetcher ports.Fetcher,
	progress ports.Progress,
	metrics ports.Metrics,
	tracer ports.Tracer,
	log ports.Logger,
	concurrency int,
) *Downloader {
	if concurrency < 1 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Downloader{
		fetcher:     fetcher,
		progress:    progress,
		metrics:     metrics,
		tracer:      tracer,
		logger:      log,
		concurrency: concurrency,
	}
}

// Download returns exactly one outcome per item, in input order.
func (d *Downloader) Download(ctx context.Context, items []domain.DownloadItem) []domain.DownloadOutcome {
	ctx, span := d.tracer.Start(ctx, "download", ports.WithAttribute("items", len(items)))
	defer span.End()

	outcomes := make([]domain.DownloadOutcome, len(items))
	var g errgroup.Group
	g.SetLimit(d.concurrency)

	for i, item := range items {
		g.Go(func() error {
			outcomes[i] = d.download(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, o := range outcomes {
		if !o.Verified() {
			failed++
		}
	}
	span.SetAttribute("failed", failed)
	return outcomes
}

func (d *Downloader) download(ctx context.Context, item domain.DownloadItem) domain.DownloadOutcome {
	name := item.DisplayName
	if name == "" {
		name = item.ModID
	}
	vertex := d.progress.Record(ctx, fmt.Sprintf("download %s (%s)", name, item.ModID))
	start := time.Now()

	outcome, written := d.materialize(ctx, item, vertex.Stdout())
	vertex.Complete(outcome.Err)
	d.metrics.ObserveDownload(outcome, written, time.Since(start))

	if outcome.Err != nil {
		d.logger.Debug("download failed", "mod_id", item.ModID, "status", outcome.Status.String())
	}
	return outcome
}

// materialize streams the artifact into a temp file next to its destination and renames it into
// place once the hash matches.
func (d *Downloader) materialize(ctx context.Context, item domain.DownloadItem, log io.Writer) (domain.DownloadOutcome, int64) {
	out := domain.DownloadOutcome{Item: item}
	transport := func(err error) (domain.DownloadOutcome, int64) {
		out.Status = domain.DownloadTransportFailure
		out.Err = annotate(err, item)
		return out, 0
	}

	_, _ = fmt.Fprintf(log, "GET %s\n", item.URL)
	body, err := d.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		return transport(err)
	}
	defer func() { _ = body.Close() }()

	dir := filepath.Dir(item.Destination)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return transport(domain.Classify(domain.ErrTransportFailure, err))
	}
	tmp, err := os.CreateTemp(dir, domain.TempFilePattern)
	if err != nil {
		return transport(domain.Classify(domain.ErrTransportFailure, err))
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	hasher := sha512.New()
	written, err := io.Copy(io.MultiWriter(tmp, hasher), body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		cleanup()
		return transport(domain.Classify(domain.ErrTransportFailure, err))
	}

	out.ActualHash = hex.EncodeToString(hasher.Sum(nil))
	if item.ExpectedHash == "" || !strings.EqualFold(out.ActualHash, item.ExpectedHash) {
		cleanup()
		out.Status = domain.DownloadChecksumMismatch
		out.Err = annotate(&domain.ChecksumError{
			ID:       item.ModID,
			Expected: item.ExpectedHash,
			Actual:   out.ActualHash,
		}, item)
		return out, written
	}

	if err := os.Chmod(tmpPath, domain.FilePerm); err != nil {
		cleanup()
		return transport(domain.Classify(domain.ErrTransportFailure, err))
	}
	if err := os.Rename(tmpPath, item.Destination); err != nil {
		cleanup()
		return transport(domain.Classify(domain.ErrTransportFailure, err))
	}

	_, _ = fmt.Fprintf(log, "verified %d bytes -> %s\n", written, filepath.Base(item.Destination))
	out.Status = domain.DownloadVerified
	return out, written
}

func annotate(err error, item domain.DownloadItem) error {
	return zerr.With(zerr.With(err, "mod_id", item.ModID), "source", item.Source.String())
}
