package utils

import (
	"path"
	"regexp"
	"strings"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

const (
	// MaxTitleLen is the max history title length in runes
	MaxTitleLen = 255
	// MaxFileNameLen is the max length of a sanitized file name
	MaxFileNameLen = 200
	maxExtLen      = 16
)

// SupportAudioExt checks if audio ext is supported
func SupportAudioExt(ext string) bool {
	switch ext {
	case ".wav", ".mp3", ".mp4", ".m4a", ".ogg", ".webm", ".wma", ".flac", ".aac":
		return true
	}
	return false
}

// SanitizeFileName drops dirs and replaces unsafe chars with '_'
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}
	name = unsafeChars.ReplaceAllString(name, "_")
	if name == "" {
		return "file"
	}
	if len(name) > MaxFileNameLen {
		ext := path.Ext(name)
		if len(ext) > maxExtLen {
			ext = ""
		}
		name = name[:MaxFileNameLen-len(ext)] + ext
	}
	return name
}

// TitleFromKey extracts original file name from key 'uploads/<owner>/<uuid>_<name>',
// cut to MaxTitleLen runes, returns "" if nothing usable is left
func TitleFromKey(key string) string {
	name := path.Base(key)
	if name == "." || name == "/" {
		return ""
	}
	if _, remainder, found := strings.Cut(name, "_"); found && remainder != "" {
		name = remainder
	}
	name = strings.TrimSpace(name)
	if r := []rune(name); len(r) > MaxTitleLen {
		name = strings.TrimSpace(string(r[:MaxTitleLen]))
	}
	return name
}
