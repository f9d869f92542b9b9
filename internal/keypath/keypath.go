// Package keypath turns flat object keys into folder-like paths.
//
// A path is either "" (the bucket root) or a sequence of segments joined by
// Separator and ending in it, e.g. "photos/2024/". Paths never contain an
// empty segment and never repeat a segment twice in a row.
package keypath

import "strings"

// Separator is the delimiter used to emulate folders in object keys.
const Separator = "/"

// Normalize splits raw on the separator, drops empty segments, collapses
// consecutive equal segments and rejoins them with a trailing separator.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	var parts []string
	for _, part := range strings.Split(raw, Separator) {
		if part == "" {
			continue
		}
		// Re-entering "a/" from "a/" must not produce "a/a/"
		if len(parts) > 0 && parts[len(parts)-1] == part {
			continue
		}
		parts = append(parts, part)
	}

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, Separator) + Separator
}

// Parent returns the path one level up. The root is its own parent, so
// callers check for "" before offering "up".
func Parent(path string) string {
	trimmed := strings.TrimSuffix(path, Separator)
	idx := strings.LastIndex(trimmed, Separator)
	if idx < 0 {
		return ""
	}
	return trimmed[:idx+1]
}

// Join appends name to path and normalizes the result.
func Join(path, name string) string {
	return Normalize(path + name)
}

// Relative strips prefix from fullKey. Keys that do not start with prefix
// are returned unchanged.
func Relative(fullKey, prefix string) string {
	if prefix != "" && strings.HasPrefix(fullKey, prefix) {
		return fullKey[len(prefix):]
	}
	return fullKey
}

// IsFolder reports whether key names a folder (or folder marker).
func IsFolder(key string) bool {
	return strings.HasSuffix(key, Separator)
}

// FolderName ensures name carries a trailing separator.
func FolderName(name string) string {
	if name == "" || IsFolder(name) {
		return name
	}
	return name + Separator
}

// Base returns the last segment of key. Folder keys keep their trailing
// separator.
func Base(key string) string {
	folder := IsFolder(key)
	trimmed := strings.TrimSuffix(key, Separator)
	if idx := strings.LastIndex(trimmed, Separator); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if folder && trimmed != "" {
		return trimmed + Separator
	}
	return trimmed
}

// Display renders path the way the browser title shows it.
func Display(path string) string {
	return Separator + path
}
