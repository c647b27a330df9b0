// Package docroot maps request targets onto files below a document root
// and loads what they name.
package docroot

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrNotFound  = errors.New("docroot: not found")
	ErrForbidden = errors.New("docroot: unsupported file type")
)

// Resolve maps a raw request target onto an existing filesystem path
// below root. root must be absolute and clean.
//
// The query is dropped, the rest is form-decoded ('+' is a space) and
// cleaned before leading and trailing slashes are trimmed and the result
// is joined to root. Anything that ends up outside root, or does not
// exist, is ErrNotFound.
func Resolve(target, root string) (string, error) {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		target = target[:i]
	}
	decoded, err := url.QueryUnescape(target)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrNotFound, target, err)
	}
	if strings.IndexByte(decoded, 0) >= 0 {
		return "", fmt.Errorf("%w: %q: NUL in path", ErrNotFound, target)
	}
	rel := strings.Trim(path.Clean(decoded), "/")
	full := filepath.Join(root, filepath.FromSlash(rel))
	if !Within(full, root) {
		return "", fmt.Errorf("%w: %q escapes document root", ErrNotFound, target)
	}
	if _, err := os.Stat(full); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, full)
	}
	return full, nil
}

// Within reports whether p is root itself or lies below it. Both paths
// must be clean.
func Within(p, root string) bool {
	if p == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}
