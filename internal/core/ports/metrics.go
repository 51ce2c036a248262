package ports

import (
	"time"

	"go.trai.ch/modman/internal/core/domain"
)

// Metrics receives counters for registry and download activity.
//
//go:generate go run go.uber.org/mock/mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// ObserveRegistryRequest records one registry call and its HTTP status (0 on transport error).
	ObserveRegistryRequest(endpoint string, status int, elapsed time.Duration)
	// ObserveDownload records one finished download.
	ObserveDownload(outcome domain.DownloadOutcome, bytes int64, elapsed time.Duration)
	// ObserveReconcile records the size of a reconcile report.
	ObserveReconcile(report *domain.ReconcileReport)
	// Flush persists collected metrics, if the implementation is configured to.
	Flush() error
}
