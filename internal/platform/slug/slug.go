package slug

import (
	"regexp"
	"strings"
)

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

func Make(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = nonAlphaNum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "untitled"
	}
	return s
}

// FileName joins the slugged parts with "-" and appends ext, e.g. FileName("csv", "Metrics", "2024-01-01").
func FileName(ext string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := Make(p); s != "untitled" {
			kept = append(kept, s)
		}
	}
	name := strings.Join(kept, "-")
	if name == "" {
		name = "untitled"
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return name
	}
	return name + "." + ext
}
