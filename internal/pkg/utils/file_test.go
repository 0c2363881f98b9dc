package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name string
		args string
		want string
	}{
		{name: "OK", args: "olia.wav", want: "olia.wav"},
		{name: "Drops dir", args: "./../olia.wav", want: "olia.wav"},
		{name: "Drops win dir", args: `c:\tmp\olia.wav`, want: "olia.wav"},
		{name: "Spaces", args: "olia one.wav", want: "olia_one.wav"},
		{name: "Several", args: "olia  ą č.wav", want: "olia_.wav"},
		{name: "Empty", args: "", want: "file"},
		{name: "Dir only", args: "/", want: "file"},
		{name: "Long", args: strings.Repeat("a", 300) + ".wav", want: strings.Repeat("a", 196) + ".wav"},
		{name: "Long ext", args: "a." + strings.Repeat("b", 300), want: ("a." + strings.Repeat("b", 300))[:200]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFileName(tt.args); got != tt.want {
				t.Errorf("SanitizeFileName() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTitleFromKey(t *testing.T) {
	tests := []struct {
		name string
		args string
		want string
	}{
		{name: "Upload key", args: "uploads/u1/0a1b_meeting.mp3", want: "meeting.mp3"},
		{name: "Keeps other underscores", args: "uploads/u1/0a1b_my_talk.wav", want: "my_talk.wav"},
		{name: "No underscore", args: "uploads/u1/talk.wav", want: "talk.wav"},
		{name: "Nothing after underscore", args: "uploads/u1/0a1b_", want: "0a1b_"},
		{name: "Trims", args: "uploads/u1/0a1b_ talk.wav ", want: "talk.wav"},
		{name: "Empty", args: "", want: ""},
		{name: "Long", args: "uploads/u1/0a1b_" + strings.Repeat("a", 300), want: strings.Repeat("a", 255)},
		{name: "Long runes", args: "uploads/u1/0a1b_" + strings.Repeat("ą", 300), want: strings.Repeat("ą", 255)},
		{name: "Long trims", args: "uploads/u1/0a1b_" + strings.Repeat("a", 254) + " b", want: strings.Repeat("a", 254)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleFromKey(tt.args); got != tt.want {
				t.Errorf("TitleFromKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSupportAudioExt(t *testing.T) {
	tests := []struct {
		ext  string
		want bool
	}{
		{ext: ".wav", want: true},
		{ext: ".mp3", want: true},
		{ext: ".mp4", want: true},
		{ext: ".m4a", want: true},
		{ext: ".ogg", want: true},
		{ext: ".webm", want: true},
		{ext: ".flac", want: true},
		{ext: ".zip", want: false},
		{ext: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := SupportAudioExt(tt.ext); got != tt.want {
				t.Errorf("SupportAudioExt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTitleFromKey_SanitizedUpload(t *testing.T) {
	name := SanitizeFileName(strings.Repeat("a", 300) + ".wav")
	title := TitleFromKey("uploads/o1/7c9e6679-7425-40de-944b-e07fc1f90ae7_" + name)
	assert.LessOrEqual(t, utf8.RuneCountInString(title), MaxTitleLen)
	assert.True(t, strings.HasSuffix(title, ".wav"))
}
