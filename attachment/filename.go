package attachment

import (
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SanitizeFilename strips directory components and collapses anything that
// is not alphanumeric, dot, underscore, or dash, kept distinct from the
// caller-supplied original_filename.
func SanitizeFilename(name string) string {
	base := name
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	base = unsafeFilenameChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "file"
	}
	return base
}

// mimeSubtypeExt maps a small set of common image MIME subtypes to a file
// extension for synthesising inline-image filenames.
var mimeSubtypeExt = map[string]string{
	"png":     "png",
	"jpeg":    "jpg",
	"jpg":     "jpg",
	"gif":     "gif",
	"webp":    "webp",
	"svg+xml": "svg",
	"bmp":     "bmp",
}

// ExtForSubtype returns the filename extension for an image MIME subtype
// (e.g. "png" from "image/png"), or "bin" if unrecognised.
func ExtForSubtype(subtype string) string {
	if ext, ok := mimeSubtypeExt[strings.ToLower(subtype)]; ok {
		return ext
	}
	return "bin"
}
