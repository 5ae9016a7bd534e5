package axisplot

import (
	"fmt"
	"os/exec"
	"runtime"
)

// browserCommand returns the command that opens url in the desktop's default
// browser.
func browserCommand(goos string, url string) (string, []string) {
	switch goos {
	case "windows":
		return "cmd", []string{"/c", "start", url}
	case "darwin":
		return "open", []string{url}
	default: // "linux", "freebsd", "openbsd", "netbsd"
		return "xdg-open", []string{url}
	}
}

func openBrowser(url string) error {
	name, args := browserCommand(runtime.GOOS, url)
	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	return nil
}
