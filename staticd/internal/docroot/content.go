package docroot

import (
	"bytes"
	"fmt"
	"html"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

const (
	// IndexFile is served in place of a directory that contains it.
	IndexFile = "index.html"

	DefaultContentType = "application/octet-stream"
)

// ContentTypeFunc guesses a media type for a file path. An empty result
// means unknown.
type ContentTypeFunc func(path string) string

// GuessContentType looks the file extension up in the mime package tables.
func GuessContentType(p string) string {
	return mime.TypeByExtension(filepath.Ext(p))
}

// Entity is a loaded resource ready to be framed into a response.
type Entity struct {
	Path        string // file that was read; the directory for listings
	ContentType string
	Body        []byte
	Listing     bool
}

// Content loads the entity behind a path produced by Resolve.
type Content struct {
	Root            string
	ContentType     ContentTypeFunc
	ListDirectories bool
}

// Load returns the entity at p. A directory is served through its
// index.html, a regular file is read whole. Other file types yield
// ErrForbidden; anything missing or unreadable yields ErrNotFound.
func (c *Content) Load(p string) (*Entity, error) {
	fi, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	switch {
	case fi.IsDir():
		return c.loadDir(p)
	case fi.Mode().IsRegular():
		return c.loadFile(p)
	default:
		return nil, fmt.Errorf("%w: %s (%s)", ErrForbidden, p, fi.Mode().Type())
	}
}

func (c *Content) loadDir(dir string) (*Entity, error) {
	index := filepath.Join(dir, IndexFile)
	if fi, err := os.Stat(index); err == nil {
		if !fi.Mode().IsRegular() {
			return nil, fmt.Errorf("%w: %s (%s)", ErrForbidden, index, fi.Mode().Type())
		}
		return c.loadFile(index)
	}
	if !c.ListDirectories {
		return nil, fmt.Errorf("%w: %s has no %s", ErrNotFound, dir, IndexFile)
	}
	body, err := c.listing(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, dir, err)
	}
	return &Entity{Path: dir, ContentType: "text/html; charset=utf-8", Body: body, Listing: true}, nil
}

func (c *Content) loadFile(p string) (*Entity, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	ct := ""
	if c.ContentType != nil {
		ct = c.ContentType(p)
	}
	if ct == "" {
		ct = DefaultContentType
	}
	return &Entity{Path: p, ContentType: ct, Body: b}, nil
}

// listing renders an HTML index of dir. Links are absolute so they work
// whether or not the request target carried a trailing slash.
func (c *Content) listing(dir string) ([]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	base := "/"
	if rel, err := filepath.Rel(c.Root, dir); err == nil && rel != "." {
		base = "/" + filepath.ToSlash(rel) + "/"
	}
	title := html.EscapeString(base)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Index of %s</title></head>\n", title)
	fmt.Fprintf(&buf, "<body>\n<h1>Index of %s</h1>\n<table>\n", title)
	if base != "/" {
		parent := path.Dir(path.Clean(base))
		if parent != "/" {
			parent += "/"
		}
		fmt.Fprintf(&buf, "<tr><td><a href=\"%s\">../</a></td><td></td><td></td></tr>\n", html.EscapeString(parent))
	}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		name := e.Name()
		size := humanize.Bytes(uint64(info.Size()))
		if e.IsDir() {
			name += "/"
			size = "-"
		}
		href := base + (&url.URL{Path: name}).EscapedPath()
		fmt.Fprintf(&buf, "<tr><td><a href=\"%s\">%s</a></td><td>%s</td><td>%s</td></tr>\n",
			html.EscapeString(href), html.EscapeString(name), size, humanize.Time(info.ModTime()))
	}
	buf.WriteString("</table>\n</body></html>\n")
	return buf.Bytes(), nil
}
