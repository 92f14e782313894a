package source

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// Status represents the installation status of an external tool
type Status struct {
	Installed bool
	Path      string
	Version   string
}

// CheckFFmpeg checks if ffmpeg is installed and returns its status
func CheckFFmpeg(ctx context.Context, binary string) Status {
	if binary == "" {
		binary = "ffmpeg"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return Status{Installed: false}
	}

	status := Status{
		Installed: true,
		Path:      path,
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// ffmpeg -version outputs version info on first line
	output, err := exec.CommandContext(checkCtx, path, "-version").Output()
	if err == nil {
		line, _, _ := strings.Cut(string(output), "\n")
		status.Version = strings.TrimSpace(line)
	}

	return status
}
