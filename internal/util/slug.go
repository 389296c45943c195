// Package util provides shared utility functions.
package util

import "strings"

// BranchSlug converts a git branch name into a filesystem-safe slug
// used in session record filenames. Slashes and other non-alphanumeric
// runs collapse to single dashes: "feat/login-form" -> "feat-login-form".
func BranchSlug(branch string) string {
	if branch == "" {
		return "detached"
	}

	slug := strings.ToLower(branch)

	var b strings.Builder
	lastDash := false
	for _, r := range slug {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	out := strings.Trim(b.String(), "-.")
	if out == "" {
		return "detached"
	}

	// Session filenames stay readable; git allows much longer refs.
	if len(out) > 80 {
		out = strings.Trim(out[:80], "-.")
	}
	return out
}
