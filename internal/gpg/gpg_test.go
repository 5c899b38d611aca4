package gpg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	lkerrors "github.com/latchkey-dev/latchkey/internal/errors"
	"github.com/latchkey-dev/latchkey/internal/system"
)

const colonOutput = `sec:u:4096:1:89ABCDEF01234567:1577836800:::u:::scESC:::+:::23::0:
fpr:::::::::1234567890ABCDEF1234567889ABCDEF01234567:
uid:u::::1577836800::DEADBEEF::Test User <test@example.com>::::::::::0:
ssb:u:4096:1:0011223344556677:1577836800::::::e:::+:::23:
`

func TestParseSecretKeyIDs(t *testing.T) {
	ids := ParseSecretKeyIDs(colonOutput)
	if len(ids) != 1 {
		t.Fatalf("got %d ids, want 1", len(ids))
	}
	if ids[0] != "89ABCDEF01234567" {
		t.Errorf("id = %q", ids[0])
	}
}

func TestParseSecretKeyIDsEmpty(t *testing.T) {
	if ids := ParseSecretKeyIDs(""); len(ids) != 0 {
		t.Errorf("expected no ids, got %v", ids)
	}
}

func TestResolveKeyIDConfigured(t *testing.T) {
	fake := system.NewFake()
	fake.Respond("gpg --list-secret-keys --with-colons 89ABCDEF01234567", colonOutput, nil)

	id, err := ResolveKeyID(context.Background(), fake, "89ABCDEF01234567")
	if err != nil {
		t.Fatalf("ResolveKeyID: %v", err)
	}
	if id != "89ABCDEF01234567" {
		t.Errorf("id = %q", id)
	}
}

func TestResolveKeyIDConfiguredButMissing(t *testing.T) {
	fake := system.NewFake()
	fake.Respond("gpg --list-secret-keys --with-colons NOPE", "", errors.New("exit status 2"))

	_, err := ResolveKeyID(context.Background(), fake, "NOPE")
	if !errors.Is(err, lkerrors.ErrNoGPGKey) {
		t.Errorf("err = %v, want ErrNoGPGKey", err)
	}
}

func TestResolveKeyIDAutoDetectSingleKey(t *testing.T) {
	fake := system.NewFake()
	fake.Respond("gpg --list-secret-keys --with-colons", colonOutput, nil)

	id, err := ResolveKeyID(context.Background(), fake, "")
	if err != nil {
		t.Fatalf("ResolveKeyID: %v", err)
	}
	if id != "89ABCDEF01234567" {
		t.Errorf("id = %q", id)
	}
}

func TestResolveKeyIDAmbiguous(t *testing.T) {
	two := colonOutput + "sec:u:255:22:AAAA111122223333:1609459200:::u:::scESC:::+:::ed25519:::0:\n"
	fake := system.NewFake()
	fake.Respond("gpg --list-secret-keys --with-colons", two, nil)

	_, err := ResolveKeyID(context.Background(), fake, "")
	if !errors.Is(err, lkerrors.ErrNoGPGKey) {
		t.Errorf("err = %v, want ErrNoGPGKey for ambiguous keyring", err)
	}
}

func TestAgentConfApplyAppendsDirective(t *testing.T) {
	home := t.TempDir()
	fake := system.NewFake()
	fake.Install("pinentry-curses")

	conf := &AgentConf{Runner: fake, Home: home}

	satisfied, err := conf.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if satisfied {
		t.Fatal("fresh gnupg home must not be satisfied")
	}

	if err := conf.Apply(context.Background()); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(home, ".gnupg", "gpg-agent.conf"))
	if err != nil {
		t.Fatalf("reading gpg-agent.conf: %v", err)
	}
	if !strings.Contains(string(content), "pinentry-program /usr/bin/pinentry-curses") {
		t.Errorf("directive missing: %q", content)
	}
}

func TestAgentConfRerunDoesNotDuplicate(t *testing.T) {
	home := t.TempDir()
	fake := system.NewFake()
	fake.Install("pinentry-curses")
	conf := &AgentConf{Runner: fake, Home: home}

	for i := 0; i < 3; i++ {
		if err := conf.Apply(context.Background()); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}

	content, _ := os.ReadFile(filepath.Join(home, ".gnupg", "gpg-agent.conf"))
	if got := strings.Count(string(content), "pinentry-program"); got != 1 {
		t.Errorf("directive count = %d, want exactly 1", got)
	}
}

func TestAgentConfRespectsExistingDirective(t *testing.T) {
	home := t.TempDir()
	gnupg := filepath.Join(home, ".gnupg")
	if err := os.MkdirAll(gnupg, 0700); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	existing := "pinentry-program /opt/custom/pinentry\n"
	if err := os.WriteFile(filepath.Join(gnupg, "gpg-agent.conf"), []byte(existing), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	conf := &AgentConf{Runner: system.NewFake(), Home: home}
	satisfied, err := conf.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !satisfied {
		t.Error("hand-configured pinentry should satisfy the check")
	}
}

func TestAgentConfNoPinentryAvailable(t *testing.T) {
	conf := &AgentConf{Runner: system.NewFake(), Home: t.TempDir()}
	err := conf.Apply(context.Background())
	if !errors.Is(err, lkerrors.ErrToolNotFound) {
		t.Errorf("err = %v, want ErrToolNotFound", err)
	}
}

func TestHasSecretKey(t *testing.T) {
	fake := system.NewFake()
	fake.Respond("gpg --list-secret-keys --with-colons GOOD", colonOutput, nil)
	fake.Respond("gpg --list-secret-keys --with-colons BAD", "", errors.New("exit status 2"))

	if !HasSecretKey(context.Background(), fake, "GOOD") {
		t.Error("expected GOOD to be present")
	}
	if HasSecretKey(context.Background(), fake, "BAD") {
		t.Error("expected BAD to be absent")
	}
}
