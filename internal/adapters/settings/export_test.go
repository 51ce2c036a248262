package settings

// NewLoaderWithEnv exposes newLoader for tests that must not read the real XDG directory.
func NewLoaderWithEnv(getenv func(string) string) *Loader {
	return newLoader(getenv)
}
