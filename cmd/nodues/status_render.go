package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"nodues/internal/clearance"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func colorizeStatus(value string, colorize bool) string {
	if !colorize {
		return value
	}
	if color := statusColor(value); color != "" {
		return color + value + ansiReset
	}
	return value
}

func statusColor(value string) string {
	switch value {
	case string(clearance.StatusCompleted), string(clearance.StageApproved):
		return ansiGreen
	case string(clearance.StatusRejected):
		return ansiRed
	case string(clearance.StatusInProgress), string(clearance.StagePending):
		return ansiYellow
	default:
		return ""
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
