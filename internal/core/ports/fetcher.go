package ports

import (
	"context"
	"io"

	"go.trai.ch/modman/internal/core/domain"
)

// Fetcher opens remote artifact streams.
//
//go:generate go run go.uber.org/mock/mockgen -source=fetcher.go -destination=mocks/mock_fetcher.go -package=mocks
type Fetcher interface {
	// Fetch returns the body of url. Failures match domain.ErrTransportFailure.
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// Downloader materializes artifacts with hash verification.
// It returns exactly one outcome per item, in order.
type Downloader interface {
	Download(ctx context.Context, items []domain.DownloadItem) []domain.DownloadOutcome
}
