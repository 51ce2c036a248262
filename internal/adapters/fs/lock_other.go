//go:build !unix

package fs

// Locker is a no-op where flock is not available.
type Locker struct{}

// NewLocker creates a new Locker.
func NewLocker() *Locker {
	return &Locker{}
}

// Lock always succeeds.
func (l *Locker) Lock(string) (func(), error) {
	return func() {}, nil
}
