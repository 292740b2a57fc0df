package naming

import "strings"

const maxSlugLen = 40

// TaskBranch derives the working-branch name for a task, e.g.
// "task/task-1a2b3c4d-add-input-validation".
func TaskBranch(taskID, description string) string {
	slug := Sanitize(description)
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return "task/" + taskID
	}
	return "task/" + taskID + "-" + slug
}

// Sanitize turns arbitrary text into a branch-safe slug. Output uses only
// [a-z0-9-] and never returns a leading/trailing '-'. Non-ASCII characters
// are treated as separators; only the first line is used.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	prevDash := false
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r = r - 'A' + 'a'
		}
		isAZ := r >= 'a' && r <= 'z'
		is09 := r >= '0' && r <= '9'
		if isAZ || is09 {
			b.WriteRune(r)
			prevDash = false
			continue
		}
		if prevDash {
			continue
		}
		b.WriteByte('-')
		prevDash = true
	}

	out := b.String()
	out = strings.Trim(out, "-")
	return out
}
