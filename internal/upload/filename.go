package upload

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename returns a version of name that is safe to join with a
// local directory. Accents are folded to ASCII, path separators turn into
// word breaks, whitespace runs become a single underscore and every other
// character outside [A-Za-z0-9_.-] is dropped. Leading and trailing dots and
// underscores are trimmed, so the result can never be "." or "..".
// The result may be empty.
//
//	"../../etc/passwd"   -> "etc_passwd"
//	"My cool movie.mov"  -> "My_cool_movie.mov"
//	"naïve café.mp4"     -> "naive_cafe.mp4"
func SanitizeFilename(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	folded = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return ' '
		}
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, folded)

	joined := strings.Join(strings.Fields(folded), "_")
	return strings.Trim(unsafeFilenameChars.ReplaceAllString(joined, ""), "._")
}

// outputBaseName returns the sanitized upload name used to derive workspace
// and download names. It always has an extension so ffmpeg can infer the
// container from the output path.
func outputBaseName(uploaded string) string {
	name := SanitizeFilename(uploaded)
	if name == "" {
		return "video.mp4"
	}
	if filepath.Ext(name) == "" {
		return name + ".mp4"
	}
	return name
}
