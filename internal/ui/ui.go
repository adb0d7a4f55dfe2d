// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui centralizes terminal output styling for the CLI.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Shared color styles. Disabled wholesale by InitColors when the output is
// not a terminal or the user opted out.
var (
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Red    = color.New(color.FgRed)
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
)

// InitColors enables or disables color output. Color is off when noColor
// is set, NO_COLOR is in the environment, or stdout is not a tty.
func InitColors(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// Header prints a bold section header with an underline.
func Header(text string) {
	fmt.Println()
	_, _ = Bold.Println(text)
	for range text {
		fmt.Print("─")
	}
	fmt.Println()
}

// SubHeader prints a bold sub-section title.
func SubHeader(text string) {
	_, _ = Bold.Println(text)
}

// Label renders a dimmed field label.
func Label(text string) string {
	return Dim.Sprint(text)
}

// CountText renders a count for summary lines.
func CountText(n int) string {
	return Bold.Sprintf("%d", n)
}

// DimText renders de-emphasized detail text.
func DimText(text string) string {
	return Dim.Sprint(text)
}
