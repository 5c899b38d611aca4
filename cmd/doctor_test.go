package cmd

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/latchkey-dev/latchkey/internal/agent"
	"github.com/latchkey-dev/latchkey/internal/configs"
	"github.com/latchkey-dev/latchkey/internal/shell"
	"github.com/latchkey-dev/latchkey/internal/system"
)

const testKeyID = "ABC123DEF4567890"

// setupHealthyEnvironment scripts a fake runner, a temporary home, and a
// saved config so every doctor check passes.
func setupHealthyEnvironment(t *testing.T) *system.Fake {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("LATCHKEY_CONFIG_DIR", filepath.Join(home, ".config", "latchkey"))

	cfg := configs.Default()
	cfg.GPG.KeyID = testKeyID
	if err := cfg.Save(); err != nil {
		t.Fatalf("saving config: %v", err)
	}

	hook := shell.HookLine(cfg.SSH.Keys, cfg.SSH.AgentTimeoutMinutes) + "\n"
	for _, name := range shell.DefaultRCFiles {
		if err := os.WriteFile(filepath.Join(home, name), []byte(hook), 0600); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	gnupg := filepath.Join(home, ".gnupg")
	if err := os.MkdirAll(gnupg, 0700); err != nil {
		t.Fatal(err)
	}
	conf := []byte("pinentry-program /usr/bin/pinentry-curses\n")
	if err := os.WriteFile(filepath.Join(gnupg, "gpg-agent.conf"), conf, 0600); err != nil {
		t.Fatal(err)
	}

	sock := filepath.Join(t.TempDir(), "agent.sock")
	listener, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatalf("creating socket: %v", err)
	}
	t.Cleanup(func() { listener.Close() })
	t.Setenv(agent.SockEnv, sock)

	fake := system.NewFake()
	fake.Install("keychain", "pass", "gpg", "git", "git-credential-manager")
	fake.Respond("gpg --list-secret-keys --with-colons "+testKeyID,
		"sec:u:255:22:"+testKeyID+":1700000000:::u:::scESC:\n", nil)
	fake.Respond("pass ls", "Password Store\n", nil)
	fake.Respond("git config --global --get credential.credentialStore", "gpg\n", nil)
	fake.Respond("git config --global --get credential.helper",
		"/usr/local/bin/git-credential-manager\n", nil)
	fake.Respond("ssh-add -l", "256 SHA256:abcdef test@example.com (ED25519)\n", nil)
	return fake
}

// runLatchkey executes the root command with args, capturing output and
// any exit codes the command requested.
func runLatchkey(t *testing.T, fake *system.Fake, args ...string) (string, []int, error) {
	t.Helper()
	ResetGlobalState()
	t.Cleanup(ResetGlobalState)
	SetRunner(fake)

	var exitCodes []int
	SetDoctorExitFunc(func(code int) { exitCodes = append(exitCodes, code) })
	SetSetupExitFunc(func(code int) { exitCodes = append(exitCodes, code) })

	root := GetRootCmd()
	root.SetArgs(args)
	output, err := captureOutput(root.Execute)
	return output, exitCodes, err
}

func TestDoctorCommandHealthy(t *testing.T) {
	fake := setupHealthyEnvironment(t)

	output, exitCodes, err := runLatchkey(t, fake, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, output)
	}
	if len(exitCodes) != 0 {
		t.Errorf("exit codes = %v, want none", exitCodes)
	}
	if !strings.Contains(output, "passed") {
		t.Errorf("output missing summary:\n%s", output)
	}
}

func TestDoctorCommandWarningsAreAdvisory(t *testing.T) {
	fake := setupHealthyEnvironment(t)
	fake.Respond("ssh-add -l", "The agent has no identities.\n", &system.ExitError{Code: 1})

	output, exitCodes, err := runLatchkey(t, fake, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, output)
	}
	// Warnings alone must not fail a non-strict run.
	if len(exitCodes) != 0 {
		t.Errorf("exit codes = %v, want none", exitCodes)
	}
	if !strings.Contains(output, "warning") {
		t.Errorf("output missing warning:\n%s", output)
	}
}

func TestDoctorCommandStrictPromotesWarnings(t *testing.T) {
	fake := setupHealthyEnvironment(t)
	fake.Respond("ssh-add -l", "The agent has no identities.\n", &system.ExitError{Code: 1})

	_, exitCodes, err := runLatchkey(t, fake, "doctor", "--strict")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if len(exitCodes) != 1 || exitCodes[0] != 1 {
		t.Errorf("exit codes = %v, want [1]", exitCodes)
	}
}

func TestDoctorCommandErrorsExitTwo(t *testing.T) {
	fake := setupHealthyEnvironment(t)
	delete(fake.Paths, "pass")

	output, exitCodes, err := runLatchkey(t, fake, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, output)
	}
	if len(exitCodes) == 0 || exitCodes[0] != 2 {
		t.Errorf("exit codes = %v, want 2 first", exitCodes)
	}
	if !strings.Contains(output, "Suggestions:") {
		t.Errorf("output missing suggestions:\n%s", output)
	}
}

func TestDoctorCommandJSON(t *testing.T) {
	fake := setupHealthyEnvironment(t)

	output, _, err := runLatchkey(t, fake, "doctor", "--json")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, output)
	}
	if !strings.Contains(output, `"status": "pass"`) {
		t.Errorf("JSON output missing pass statuses:\n%s", output)
	}
	if !strings.Contains(output, `"summary"`) {
		t.Errorf("JSON output missing summary:\n%s", output)
	}
}
