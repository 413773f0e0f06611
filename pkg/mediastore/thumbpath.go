package mediastore

import "strings"

// ThumbnailKey builds the deterministic cache object path for a thumbnail:
// {prefix}{basenameWithoutExt}_{descriptor}.{targetExt}. Two requests share
// a key only when source, size descriptor and derived format all agree.
func ThumbnailKey(sourcePath string, size Size, prefix, targetExt string) string {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + baseNameWithoutExt(sourcePath) + "_" + size.Descriptor() + "." + strings.TrimPrefix(targetExt, ".")
}

// ThumbnailKeyPrefix returns the common prefix of every thumbnail derived
// from sourcePath, regardless of size and format. Used by cache cleanup.
func ThumbnailKeyPrefix(sourcePath, prefix string) string {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + baseNameWithoutExt(sourcePath)
}

// baseNameWithoutExt strips the final extension while keeping any directory
// components. A leading-dot name like ".hidden" keeps its dot.
func baseNameWithoutExt(p string) string {
	if i := strings.LastIndex(p, "."); i > 0 {
		return p[:i]
	}
	return p
}
