package remote

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// hostTrust verifies server keys against a known_hosts file. Unknown hosts
// are trusted on first use after confirmation; changed keys need explicit
// confirmation to be replaced. Batch mode refuses both.
type hostTrust struct {
	path   string
	host   string
	port   int
	batch  bool
	prompt func(string) (bool, error)
}

func (h *hostTrust) callback() (ssh.HostKeyCallback, error) {
	verify, err := knownhosts.New(h.path)
	if err != nil {
		return nil, fmt.Errorf("cannot load known_hosts: %w", err)
	}
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := verify(hostname, remote, key)
		if err == nil {
			return nil
		}
		var keyErr *knownhosts.KeyError
		if !errors.As(err, &keyErr) {
			return fmt.Errorf("host key verification failed: %w", err)
		}
		if len(keyErr.Want) == 0 {
			return h.trustNew(key)
		}
		return h.replaceChanged(key, keyErr.Want)
	}, nil
}

func (h *hostTrust) address() string {
	return knownHostAddress(h.host, h.port)
}

func (h *hostTrust) trustNew(key ssh.PublicKey) error {
	presented := ssh.FingerprintSHA256(key)
	if h.batch {
		return fmt.Errorf("unknown host key for %s (%s); run ssh once to trust it or disable batch mode", h.address(), presented)
	}
	ok, err := h.prompt(fmt.Sprintf(
		"The authenticity of host '%s' can't be established.\n%s key fingerprint is %s.\nTrust this host and continue connecting (yes/no)? ",
		h.address(), key.Type(), presented,
	))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("host key for %s was not trusted", h.address())
	}
	return addKnownHost(h.path, h.host, h.port, key)
}

func (h *hostTrust) replaceChanged(key ssh.PublicKey, want []knownhosts.KnownKey) error {
	expected := make([]string, 0, len(want))
	for _, w := range want {
		expected = append(expected, ssh.FingerprintSHA256(w.Key))
	}
	presented := ssh.FingerprintSHA256(key)
	if h.batch {
		return fmt.Errorf("host key mismatch for %s: expected %s, presented %s",
			h.address(), strings.Join(expected, ", "), presented)
	}
	ok, err := h.prompt(fmt.Sprintf(
		"WARNING: HOST KEY CHANGED for '%s'.\nExpected: %s\nPresented: %s\nReplace stored key and continue (yes/no)? ",
		h.address(), strings.Join(expected, ", "), presented,
	))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("host key mismatch for %s", h.address())
	}
	return replaceKnownHost(h.path, h.host, h.port, key)
}

func ensureKnownHostsFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for known_hosts: %w", err)
	}
	sshDir := filepath.Join(home, ".ssh")
	if err := os.MkdirAll(sshDir, 0o700); err != nil {
		return "", fmt.Errorf("cannot create ~/.ssh directory: %w", err)
	}
	path := filepath.Join(sshDir, "known_hosts")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			return "", fmt.Errorf("cannot create known_hosts: %w", err)
		}
	} else if err != nil {
		return "", fmt.Errorf("cannot access known_hosts: %w", err)
	}
	return path, nil
}

func knownHostAddress(host string, port int) string {
	if port == 22 {
		return host
	}
	return fmt.Sprintf("[%s]:%d", host, port)
}

func addKnownHost(path, host string, port int, key ssh.PublicKey) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("cannot update known_hosts: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(knownhosts.Line([]string{knownHostAddress(host, port)}, key) + "\n"); err != nil {
		return fmt.Errorf("cannot write known_hosts entry: %w", err)
	}
	return nil
}

func replaceKnownHost(path, host string, port int, key ssh.PublicKey) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read known_hosts: %w", err)
	}
	updated := removeKnownHostEntries(data, host, port)
	if len(updated) > 0 && updated[len(updated)-1] != '\n' {
		updated = append(updated, '\n')
	}
	updated = append(updated, knownhosts.Line([]string{knownHostAddress(host, port)}, key)...)
	updated = append(updated, '\n')
	if err := os.WriteFile(path, updated, 0o600); err != nil {
		return fmt.Errorf("cannot write known_hosts: %w", err)
	}
	return nil
}

// removeKnownHostEntries drops every line naming host on port, keeping
// comments and entries for other hosts or ports.
func removeKnownHostEntries(data []byte, host string, port int) []byte {
	names := map[string]bool{
		host:                               port == 22,
		fmt.Sprintf("[%s]:%d", host, port): true,
	}
	lines := strings.Split(string(data), "\n")
	keep := make([]string, 0, len(lines))
	for _, line := range lines {
		if !lineNamesHost(line, names) {
			keep = append(keep, line)
		}
	}
	return []byte(strings.Join(keep, "\n"))
}

func lineNamesHost(line string, names map[string]bool) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return false
	}
	fields := strings.Fields(trimmed)
	if strings.HasPrefix(fields[0], "@") {
		if len(fields) < 2 {
			return false
		}
		fields = fields[1:]
	}
	for _, h := range strings.Split(fields[0], ",") {
		if names[h] {
			return true
		}
	}
	return false
}
