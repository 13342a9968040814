package utils

import "runtime"

// Build information, set with -ldflags -X by the release build.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// UserAgent names a fair component in outgoing requests, e.g.
// "fair-cli/0.3.0 (linux/amd64)".
func UserAgent(component string) string {
	return component + "/" + Version + " (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
}
