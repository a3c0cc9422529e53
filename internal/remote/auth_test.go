package remote

import (
	"crypto/ed25519"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

func TestParseSSHTarget(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		user    string
		host    string
		wantErr bool
	}{
		{name: "valid", target: "alice@example.com", user: "alice", host: "example.com"},
		{name: "empty", target: "", wantErr: true},
		{name: "no at", target: "example.com", wantErr: true},
		{name: "missing user", target: "@example.com", wantErr: true},
		{name: "missing host", target: "alice@", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			user, host, err := ParseTarget(tc.target)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user != tc.user || host != tc.host {
				t.Fatalf("unexpected result: got %q@%q want %q@%q", user, host, tc.user, tc.host)
			}
		})
	}
}

func TestIsTarget(t *testing.T) {
	tests := []struct {
		arg  string
		want bool
	}{
		{"alice@example.com", true},
		{"./alice@example.com", false},
		{"/home/alice", false},
		{"downloads", false},
	}
	for _, tt := range tests {
		if got := IsTarget(tt.arg); got != tt.want {
			t.Errorf("IsTarget(%q) = %v, want %v", tt.arg, got, tt.want)
		}
	}
}

func TestReadYesNo(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"yes\n", true},
		{"Y\n", true},
		{"no\n", false},
		{"", false},
		{"  yes  ", true},
	}
	for _, tt := range tests {
		got, err := readYesNo(strings.NewReader(tt.in))
		if err != nil {
			t.Fatalf("readYesNo(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("readYesNo(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPasswordPrompter_AsksOnce(t *testing.T) {
	calls := 0
	p := &passwordPrompter{user: "alice", host: "example.com", read: func(prompt string) (string, error) {
		calls++
		if prompt != "alice@example.com's password: " {
			t.Errorf("prompt = %q", prompt)
		}
		return "secret", nil
	}}

	answers, err := p.keyboardInteractive("", "", []string{"Password: ", "Name: "}, []bool{false, true})
	if err != nil {
		t.Fatal(err)
	}
	if answers[0] != "secret" || answers[1] != "" {
		t.Fatalf("answers = %q", answers)
	}
	if pass, _ := p.password(); pass != "secret" {
		t.Fatalf("password() = %q", pass)
	}
	if calls != 1 {
		t.Fatalf("prompted %d times, want 1", calls)
	}
}

func TestPasswordPrompter_ErrorNotCached(t *testing.T) {
	fail := true
	p := &passwordPrompter{read: func(string) (string, error) {
		if fail {
			return "", errors.New("no tty")
		}
		return "later", nil
	}}
	if _, err := p.password(); err == nil {
		t.Fatal("expected error")
	}
	fail = false
	if pass, err := p.password(); err != nil || pass != "later" {
		t.Fatalf("password() = %q, %v", pass, err)
	}
}

func TestKnownHostAddress(t *testing.T) {
	if got := knownHostAddress("example.com", 22); got != "example.com" {
		t.Fatalf("unexpected address for port 22: %q", got)
	}
	if got := knownHostAddress("example.com", 2222); got != "[example.com]:2222" {
		t.Fatalf("unexpected address for custom port: %q", got)
	}
}

func TestRemoveKnownHostEntries(t *testing.T) {
	input := strings.Join([]string{
		"# comment example.com",
		"example.com ssh-ed25519 AAAA",
		"[example.com]:22 ssh-ed25519 BBBB",
		"[example.com]:2222 ssh-ed25519 CCCC",
		"other.com,example.com ssh-ed25519 DDDD",
		"@revoked other.com ssh-ed25519 EEEE",
		"",
	}, "\n")

	out22 := string(removeKnownHostEntries([]byte(input), "example.com", 22))
	for _, gone := range []string{"AAAA", "BBBB", "DDDD"} {
		if strings.Contains(out22, gone) {
			t.Fatalf("port 22: entry %s should be removed", gone)
		}
	}
	for _, kept := range []string{"CCCC", "EEEE", "# comment"} {
		if !strings.Contains(out22, kept) {
			t.Fatalf("port 22: entry %s should remain", kept)
		}
	}

	out2222 := string(removeKnownHostEntries([]byte(input), "example.com", 2222))
	if strings.Contains(out2222, "CCCC") {
		t.Fatal("expected custom port entry removed")
	}
	for _, kept := range []string{"AAAA", "BBBB", "DDDD"} {
		if !strings.Contains(out2222, kept) {
			t.Fatalf("port 2222: entry %s should remain", kept)
		}
	}
}

func newHostKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	key, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func TestHostTrust_FirstUseThenMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known_hosts")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 2222}
	key := newHostKey(t)

	prompted := 0
	trust := &hostTrust{path: path, host: "example.com", port: 2222, prompt: func(string) (bool, error) {
		prompted++
		return true, nil
	}}
	cb, err := trust.callback()
	if err != nil {
		t.Fatal(err)
	}
	if err := cb("example.com:2222", addr, key); err != nil {
		t.Fatalf("first use: %v", err)
	}
	if prompted != 1 {
		t.Fatalf("prompted %d times, want 1", prompted)
	}

	// A fresh callback reads the stored key back.
	cb, err = trust.callback()
	if err != nil {
		t.Fatal(err)
	}
	if err := cb("example.com:2222", addr, key); err != nil {
		t.Fatalf("known key: %v", err)
	}
	if prompted != 1 {
		t.Fatal("known key should not prompt")
	}

	batch := &hostTrust{path: path, host: "example.com", port: 2222, batch: true}
	cb, err = batch.callback()
	if err != nil {
		t.Fatal(err)
	}
	err = cb("example.com:2222", addr, newHostKey(t))
	if err == nil || !strings.Contains(err.Error(), "host key mismatch") {
		t.Fatalf("changed key in batch mode: %v", err)
	}
}

func TestHostTrust_RejectedAndBatchUnknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known_hosts")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 22}

	declined := &hostTrust{path: path, host: "example.com", port: 22, prompt: func(string) (bool, error) { return false, nil }}
	cb, err := declined.callback()
	if err != nil {
		t.Fatal(err)
	}
	if err := cb("example.com:22", addr, newHostKey(t)); err == nil || !strings.Contains(err.Error(), "not trusted") {
		t.Fatalf("declined: %v", err)
	}

	batch := &hostTrust{path: path, host: "example.com", port: 22, batch: true}
	cb, err = batch.callback()
	if err != nil {
		t.Fatal(err)
	}
	if err := cb("example.com:22", addr, newHostKey(t)); err == nil || !strings.Contains(err.Error(), "unknown host key") {
		t.Fatalf("batch unknown: %v", err)
	}

	data, _ := os.ReadFile(path)
	if len(data) != 0 {
		t.Fatalf("known_hosts modified: %q", data)
	}
}
