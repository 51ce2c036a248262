package fs

import (
	"crypto/sha512"
	"encoding/hex"
	"io"
	"os"

	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/zerr"
)

// Hasher computes artifact content hashes.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// HashFile computes the SHA-512 hex digest and the size of a file's content.
func (h *Hasher) HashFile(path string) (string, int64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return "", 0, zerr.With(domain.Classify(domain.ErrHashFailed, err), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	digest := sha512.New()
	n, err := io.Copy(digest, f)
	if err != nil {
		return "", 0, zerr.With(domain.Classify(domain.ErrHashFailed, err), "path", path)
	}

	return hex.EncodeToString(digest.Sum(nil)), n, nil
}
