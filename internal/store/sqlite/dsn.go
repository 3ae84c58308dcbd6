package sqlite

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// parseDSN turns a sqlite:// DSN into the driver's form. path is the
// database file, or empty for an in-memory database.
func parseDSN(dsn string) (driverDSN, path string, err error) {
	if !strings.HasPrefix(dsn, "sqlite://") {
		return "", "", fmt.Errorf("invalid sqlite DSN scheme, expected sqlite://")
	}

	rest := strings.TrimPrefix(dsn, "sqlite://")
	if rest == "" {
		return "", "", fmt.Errorf("sqlite DSN has no path")
	}
	if rest == ":memory:" {
		return ":memory:", "", nil
	}

	path, query, _ := strings.Cut(rest, "?")
	path, err = url.PathUnescape(path)
	if err != nil {
		return "", "", fmt.Errorf("unescaping path: %w", err)
	}
	if !filepath.IsAbs(path) && !strings.HasPrefix(path, "./") {
		path = "./" + path
	}

	driverDSN = path
	if query != "" {
		driverDSN += "?" + query
	}
	return driverDSN, path, nil
}
