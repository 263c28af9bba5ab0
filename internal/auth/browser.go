package auth

import (
	"io"

	"github.com/pkg/browser"
)

func init() {
	// xdg-open and friends print noise on stdout.
	browser.Stdout = io.Discard
}

// OpenBrowser opens u in the operator's default browser.
func OpenBrowser(u string) error {
	return browser.OpenURL(u)
}
