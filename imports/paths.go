package imports

import (
	"path"
	"path/filepath"
	"strings"
)

func isRelative(source string) bool {
	return source == "." || source == ".." || strings.HasPrefix(source, "./") || strings.HasPrefix(source, "../")
}

// parentDepth counts the leading `../` segments of a path.
func parentDepth(source string) int {
	depth := 0
	for _, segment := range strings.Split(source, "/") {
		if segment == "." {
			continue
		}
		if segment != ".." {
			break
		}
		depth++
	}
	return depth
}

func allowListed(source string, allowList []string) bool {
	for _, entry := range allowList {
		if strings.HasPrefix(source, entry) {
			return true
		}
		if ok, _ := path.Match(entry, source); ok {
			return true
		}
	}
	return false
}

// normalizePath rewrites a relative module path for the converted file.
// Paths are relocated when a relocation is configured; paths nested deeper
// than the threshold are recomputed against the file location, or through
// the root alias.
func normalizePath(source, filePath string, opts Options) string {
	if !isRelative(source) || allowListed(source, opts.AllowList) {
		return source
	}
	dir := path.Dir(filepath.ToSlash(filePath))
	resolved := path.Join(dir, source)
	result := source
	if opts.Relocate != nil && opts.TargetPath != "" {
		resolved = filepath.ToSlash(opts.Relocate(resolved))
		dir = path.Dir(filepath.ToSlash(opts.TargetPath))
		if rel, ok := relative(dir, resolved); ok {
			result = rel
		}
	}
	if opts.MaxParentDepth <= 0 || parentDepth(result) <= opts.MaxParentDepth {
		return result
	}
	if opts.RootAlias != "" && opts.RootDir != "" {
		if rel, ok := relative(filepath.ToSlash(opts.RootDir), resolved); ok && !strings.HasPrefix(rel, "../") {
			return strings.TrimSuffix(opts.RootAlias, "/") + "/" + strings.TrimPrefix(rel, "./")
		}
	}
	if rel, ok := relative(dir, resolved); ok {
		return rel
	}
	return result
}

// relative expresses target relative to dir, always starting with `./` or `../`.
func relative(dir, target string) (string, bool) {
	rel, err := filepath.Rel(filepath.FromSlash(dir), filepath.FromSlash(target))
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel != ".." && !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel, true
}
