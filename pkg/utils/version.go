// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// UserAgent is the User-Agent header streamchat sends to chat servers.
func UserAgent() string {
	return fmt.Sprintf("streamchat/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}
