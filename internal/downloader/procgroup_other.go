//go:build !unix

package downloader

import "os/exec"

func killProcessGroupOnCancel(cmd *exec.Cmd) {}
