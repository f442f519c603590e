package file

import (
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/gosimple/unidecode"
)

const (
	FallbackFilename  = "download"
	MaxFilenameLength = 255
	MaxURLLength      = 2048

	maxKeptExtLength = 16
)

// ValidateURL accepts absolute http(s) URLs with a host.
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &ErrValidation{URL: raw, Reason: "empty message"}
	}
	if len(raw) > MaxURLLength {
		return nil, &ErrValidation{URL: raw[:64] + "...", Reason: "url is too long"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &ErrValidation{URL: raw, Reason: "malformed url"}
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, &ErrValidation{URL: raw, Reason: "only http and https links are supported"}
	}
	if u.Hostname() == "" {
		return nil, &ErrValidation{URL: raw, Reason: "missing host"}
	}
	return u, nil
}

// ResolveFilename picks a safe file name for a download. The filename
// parameter of contentDisposition wins over the last URL path segment;
// FallbackFilename is used when neither yields anything usable.
func ResolveFilename(rawURL, contentDisposition string) string {
	if name := filenameFromDisposition(contentDisposition); name != "" {
		return name
	}
	if name := filenameFromURL(rawURL); name != "" {
		return name
	}
	return FallbackFilename
}

// SanitizeFilename keeps letters, digits, '.', '_', '-' and single spaces.
// Non-ASCII letters are transliterated first. The result may be empty.
func SanitizeFilename(name string) string {
	name = unidecode.Unidecode(name)

	var sb strings.Builder
	for _, r := range name {
		if isAllowedRune(r) {
			sb.WriteRune(r)
		}
	}
	cleaned := strings.Join(strings.Fields(sb.String()), " ")
	if strings.Trim(cleaned, ". ") == "" {
		return ""
	}
	return truncateFilename(cleaned, MaxFilenameLength)
}

func filenameFromDisposition(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(value)
	if err != nil {
		return ""
	}
	name := strings.ReplaceAll(params["filename"], `\`, "/")
	if name == "" {
		return ""
	}
	return SanitizeFilename(path.Base(name))
}

func filenameFromURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	escaped := strings.TrimRight(u.EscapedPath(), "/")
	segment := escaped[strings.LastIndex(escaped, "/")+1:]
	if segment == "" {
		return ""
	}
	if decoded, err := url.PathUnescape(segment); err == nil {
		segment = decoded
	}
	return SanitizeFilename(segment)
}

func isAllowedRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '_', r == '-', r == ' ':
		return true
	}
	return false
}

func truncateFilename(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	ext := filepath.Ext(name)
	if ext == name || len(ext) > maxKeptExtLength {
		ext = ""
	}
	base := strings.TrimRight(name[:limit-len(ext)], " ")
	return base + ext
}
