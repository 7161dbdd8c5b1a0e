//go:build !unix

package magick

import "os/exec"

func killProcessGroup(*exec.Cmd) {}
