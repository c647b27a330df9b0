package staticd

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"dqx0.com/go/staticd/internal/obs"
	"dqx0.com/go/staticd/staticd/internal/docroot"
	"dqx0.com/go/staticd/staticd/internal/http1"
)

const (
	DefaultHost       = "localhost"
	DefaultPort       = 8080
	DefaultBacklog    = 128
	DefaultServerName = "staticd/0.1"
)

// Config is read once by NewServer and never mutated afterwards.
type Config struct {
	// Root is the document root. Empty means the working directory.
	Root string
	Host string
	// Port 0 picks an ephemeral port.
	Port int
	// Workers is the number of connection handlers; defaults to NumCPU.
	Workers int
	// Backlog is the capacity of the queue between the acceptor and
	// the workers.
	Backlog int
	// MaxLineBytes bounds the request line and each header line.
	MaxLineBytes int

	// ReadTimeout and WriteTimeout are per-connection deadlines for
	// reading the request and writing the response. Zero disables them.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// ListDirectories renders an HTML index for directories without
	// index.html instead of answering 404.
	ListDirectories bool

	ServerName  string
	ContentType docroot.ContentTypeFunc

	Logger obs.Logger
	Meter  obs.Meter
}

// Addr is the host:port the server listens on.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) withDefaults() Config {
	if c.Root == "" {
		if wd, err := os.Getwd(); err == nil {
			c.Root = wd
		}
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Backlog <= 0 {
		c.Backlog = DefaultBacklog
	}
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = http1.DefaultMaxLineBytes
	}
	if c.ServerName == "" {
		c.ServerName = DefaultServerName
	}
	if c.ContentType == nil {
		c.ContentType = docroot.GuessContentType
	}
	if c.Logger == nil {
		c.Logger = obs.NopLogger{}
	}
	if c.Meter == nil {
		c.Meter = obs.NopMeter{}
	}
	return c
}

// validate makes Root absolute and checks that it is a directory.
func (c *Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	abs, err := filepath.Abs(c.Root)
	if err != nil {
		return fmt.Errorf("%w: document root %q: %v", ErrInvalidConfig, c.Root, err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("%w: document root: %v", ErrInvalidConfig, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: document root %s is not a directory", ErrInvalidConfig, abs)
	}
	c.Root = abs
	return nil
}
