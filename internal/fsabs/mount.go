package fsabs

import (
	"fmt"
	"net/url"
	"strings"
)

// MountConfig names one configured filesystem mount, keyed by the same
// scheme dispatch the teacher's core/network.go GetUploaderFor gestured at.
type MountConfig struct {
	Name string

	// Local
	LocalDir string

	// WebDAV
	WebDAV WebDAVConfig

	// FTP
	FTP FTPConfig
}

// Open dispatches a MountConfig to its concrete Filesystem implementation
// based on which backend's settings are populated, checked in the order
// LocalDir, WebDAV.BaseURL, FTP.Addr; the URL scheme is not consulted here.
// Mirrors core/network.go's
// GetUploaderFor(destinationUrl) dispatch, but fully implemented rather
// than a TODO-stub panic.
func Open(cfg MountConfig) (Filesystem, error) {
	switch {
	case cfg.LocalDir != "":
		return NewLocal(), nil
	case cfg.WebDAV.BaseURL != "":
		return NewWebDAV(cfg.WebDAV), nil
	case cfg.FTP.Addr != "":
		return NewFTP(cfg.FTP), nil
	default:
		return nil, fmt.Errorf("fsabs: mount %q has no configured backend", cfg.Name)
	}
}

// SchemeOf classifies a mount URL, used by config validation to report an
// unsupported scheme early rather than failing deep inside Open.
func SchemeOf(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "file", "":
		return "file", nil
	case "http", "https":
		return "webdav", nil
	case "ftp":
		return "ftp", nil
	default:
		return "", fmt.Errorf("fsabs: unsupported mount scheme %q", u.Scheme)
	}
}
