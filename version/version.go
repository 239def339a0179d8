package version

var (
	// Set through -ldflags at release time
	semver   = "0.1.0"
	revision = "unknown"
)

// Get return the version.
func Get() string {
	return semver
}

func Commit() string {
	return revision
}
