// Package open hands URLs and file paths to the desktop environment's
// default opener.
package open

import (
	"os/exec"
	"runtime"
)

// Open launches the platform opener for target (a URL or a file path) and
// returns without waiting for it.
func Open(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	return cmd.Start()
}
