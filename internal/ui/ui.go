// Package ui provides terminal detection and colored output helpers
// for the CLI frontends.
package ui

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether stdout is connected to a TTY.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShouldUseColor respects the NO_COLOR (https://no-color.org/),
// CLICOLOR, and CLICOLOR_FORCE conventions, defaulting to color only
// on a TTY.
func ShouldUseColor() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	if _, exists := os.LookupEnv("CLICOLOR_FORCE"); exists {
		return true
	}
	return IsTerminal()
}

func profile() termenv.Profile {
	if !ShouldUseColor() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// Success formats a message in green.
func Success(format string, a ...any) string {
	return colorize(termenv.ANSIGreen, format, a...)
}

// Warn formats a message in yellow.
func Warn(format string, a ...any) string {
	return colorize(termenv.ANSIYellow, format, a...)
}

// Error formats a message in red.
func Error(format string, a ...any) string {
	return colorize(termenv.ANSIRed, format, a...)
}

// Info formats a message in cyan.
func Info(format string, a ...any) string {
	return colorize(termenv.ANSICyan, format, a...)
}

// Dim formats a message faintly.
func Dim(format string, a ...any) string {
	s := fmt.Sprintf(format, a...)
	return termenv.String(s).Faint().String()
}

func colorize(color termenv.Color, format string, a ...any) string {
	s := fmt.Sprintf(format, a...)
	p := profile()
	if p == termenv.Ascii {
		return s
	}
	return termenv.String(s).Foreground(p.Convert(color)).String()
}
