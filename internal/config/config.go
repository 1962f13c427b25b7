package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultPort is the port the trivia server binds when serve.env does not override it.
// If 8000 is already taken on your machine, change it here or set PORT in serve.env.
const DefaultPort = 8000

// FileName is the optional config file looked up in the server root.
const FileName = "serve.env"

// Config holds everything the server needs to start.
type Config struct {
	Host string // empty means all interfaces
	Port int
	Root string // directory files are served from
}

// Addr returns the listen address in host:port form.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Load builds the Config for the given server root.
// Only serve.env is consulted; the process environment is left alone.
func Load(root string) (Config, error) {
	cfg := Config{
		Port: DefaultPort,
		Root: root,
	}

	values, err := godotenv.Read(filepath.Join(root, FileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading %s: %w", FileName, err)
	}

	if raw, ok := values["PORT"]; ok {
		port, err := parsePort(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", FileName, err)
		}
		cfg.Port = port
	}

	return cfg, nil
}

func parsePort(raw string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid PORT %q: %w", raw, err)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid PORT %d: must be between 1 and 65535", port)
	}
	return port, nil
}

// ResolveRoot returns the directory holding the server executable, with
// symlinks resolved. That directory is the server root, wherever the caller
// happens to be standing.
//
// The one exception is a binary built by `go run` or `go test`: the go tool
// puts those in a throwaway go-build work directory, so the working directory
// is used instead.
func ResolveRoot() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving executable path: %w", err)
	}
	dir := filepath.Dir(exe)

	if !isGoBuildDir(dir) {
		return dir, nil
	}

	// Built by the go tool; serve from where the command was run.
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return filepath.EvalSymlinks(cwd)
}

// isGoBuildDir reports whether dir lies inside a go tool work directory
// (go-build1234567/b001/exe and the like). It looks only at the path, never
// at TMPDIR or any other environment variable.
func isGoBuildDir(dir string) bool {
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if strings.HasPrefix(part, "go-build") {
			return true
		}
	}
	return false
}
