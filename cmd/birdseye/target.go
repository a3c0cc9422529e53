package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sadopc/birdseye/internal/remote"
)

type scanTarget struct {
	Remote         bool
	LocalPath      string
	SSHDestination string
	RemotePath     string
}

var presets = []string{"home", "downloads", "videos", "cache", "temp"}

func resolveScanTarget(args []string) (scanTarget, error) {
	if len(args) == 0 {
		return scanTarget{LocalPath: "."}, nil
	}

	first := args[0]
	if pathExists(first) {
		if len(args) > 1 {
			return scanTarget{}, fmt.Errorf("too many positional arguments for local scan")
		}
		return scanTarget{LocalPath: first}, nil
	}

	if remote.IsTarget(first) {
		if err := validateRemoteTarget(first); err != nil {
			return scanTarget{}, err
		}
		if len(args) > 2 {
			return scanTarget{}, fmt.Errorf("too many positional arguments for remote scan")
		}

		remotePath := "."
		if len(args) == 2 && strings.TrimSpace(args[1]) != "" {
			remotePath = args[1]
		}

		return scanTarget{
			Remote:         true,
			SSHDestination: first,
			RemotePath:     remotePath,
		}, nil
	}

	if len(args) > 1 {
		return scanTarget{}, fmt.Errorf("too many positional arguments")
	}

	return scanTarget{LocalPath: first}, nil
}

func validateRemoteTarget(raw string) error {
	if strings.Count(raw, "@") != 1 {
		return fmt.Errorf("invalid remote target %q: expected user@host", raw)
	}
	user, host, err := remote.ParseTarget(raw)
	if err != nil {
		return err
	}
	if strings.HasPrefix(user, "-") || strings.HasPrefix(host, "-") {
		return fmt.Errorf("invalid remote target %q", raw)
	}
	if strings.ContainsAny(user, " \t\n\r") || strings.ContainsAny(host, " \t\n\r") {
		return fmt.Errorf("invalid remote target %q: spaces are not allowed", raw)
	}
	if strings.HasPrefix(host, "[") {
		end := strings.Index(host, "]")
		if end == -1 {
			return fmt.Errorf("invalid remote target %q: malformed bracketed host", raw)
		}
		if end == 1 {
			return fmt.Errorf("invalid remote target %q: empty host", raw)
		}
		if end != len(host)-1 {
			rest := host[end+1:]
			if strings.HasPrefix(rest, ":") && isAllDigits(rest[1:]) {
				return fmt.Errorf("remote target %q must not include :port; use --ssh-port", raw)
			}
			return fmt.Errorf("invalid remote target %q: malformed bracketed host", raw)
		}
	} else if strings.Contains(host, "]") {
		return fmt.Errorf("invalid remote target %q: malformed bracketed host", raw)
	}
	if looksLikeHostPort(host) {
		return fmt.Errorf("remote target %q must not include :port; use --ssh-port", raw)
	}
	return nil
}

// presetPath maps a preset name to a local directory.
func presetPath(name string) (string, error) {
	switch name {
	case "temp":
		return os.TempDir(), nil
	case "cache":
		dir, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("cannot locate cache directory: %w", err)
		}
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate home directory: %w", err)
	}
	switch name {
	case "home":
		return home, nil
	case "downloads":
		return filepath.Join(home, "Downloads"), nil
	case "videos":
		return filepath.Join(home, "Videos"), nil
	}
	return "", fmt.Errorf("unknown preset %q (want one of %s)", name, strings.Join(presets, ", "))
}

func looksLikeHostPort(host string) bool {
	if strings.Count(host, ":") != 1 {
		return false
	}
	_, port, _ := strings.Cut(host, ":")
	return isAllDigits(port)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
