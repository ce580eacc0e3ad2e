package entry

import "strings"

// MetaFileName is the directory sidecar file inside the meta folder.
const MetaFileName = "tsm.json"

// ThumbExtension is appended to a file name to form its thumbnail name.
const ThumbExtension = ".jpg"

// NormalizePath strips trailing separators, keeping a lone root separator.
func NormalizePath(path, sep string) string {
	if path == "" {
		return path
	}
	trimmed := strings.TrimRight(path, sep)
	if trimmed == "" {
		return sep
	}
	return trimmed
}

// ParentDirectory returns the parent of path. The parent of a top level
// directory is the root separator; the root itself has no parent.
func ParentDirectory(path, sep string) string {
	normalized := NormalizePath(path, sep)
	if normalized == sep || normalized == "" {
		return ""
	}
	idx := strings.LastIndex(normalized, sep)
	if idx < 0 {
		return ""
	}
	if idx == 0 {
		return sep
	}
	return normalized[:idx]
}

// JoinPath joins parts with sep without cleaning.
func JoinPath(sep string, parts ...string) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 && !strings.HasSuffix(b.String(), sep) {
			b.WriteString(sep)
		}
		if i > 0 {
			p = strings.TrimPrefix(p, sep)
		}
		b.WriteString(p)
	}
	return b.String()
}

// BaseName returns the last path element.
func BaseName(path, sep string) string {
	normalized := NormalizePath(path, sep)
	idx := strings.LastIndex(normalized, sep)
	if idx < 0 {
		return normalized
	}
	return normalized[idx+1:]
}

// IsWithin reports whether path equals root or lies below it.
func IsWithin(path, root, sep string) bool {
	path = NormalizePath(path, sep)
	root = NormalizePath(root, sep)
	if path == "" || root == "" {
		return false
	}
	if path == root {
		return true
	}
	if root == sep {
		return strings.HasPrefix(path, sep)
	}
	return strings.HasPrefix(path, root+sep)
}

// MetaFolderPath returns the meta folder of dir.
func MetaFolderPath(dir, sep, metaFolder string) string {
	return JoinPath(sep, NormalizePath(dir, sep), metaFolder)
}

// MetaFileLocationForDir returns the sidecar file of dir.
func MetaFileLocationForDir(dir, sep, metaFolder string) string {
	return JoinPath(sep, MetaFolderPath(dir, sep, metaFolder), MetaFileName)
}

// ThumbFileLocation returns where the thumbnail of filePath is stored.
func ThumbFileLocation(filePath, sep, metaFolder string) string {
	dir := ParentDirectory(filePath, sep)
	return JoinPath(sep, MetaFolderPath(dir, sep, metaFolder), BaseName(filePath, sep)+ThumbExtension)
}

// IsInMetaFolder reports whether dir is a meta folder.
func IsInMetaFolder(dir, sep, metaFolder string) bool {
	return strings.HasSuffix(dir, sep+metaFolder) || strings.HasSuffix(dir, sep+metaFolder+sep)
}
