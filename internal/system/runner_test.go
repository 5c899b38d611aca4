package system

import (
	"context"
	"errors"
	"testing"
)

func TestFakeDispatchRecordsCalls(t *testing.T) {
	fake := NewFake()
	fake.Respond("pass ls", "Password Store", nil)
	fake.Respond("pass init ABCD", "", nil)

	out, err := fake.Output(context.Background(), "pass", "ls")
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if out != "Password Store" {
		t.Errorf("Output = %q, want %q", out, "Password Store")
	}

	if err := fake.RunInteractive(context.Background(), "pass", "init", "ABCD"); err != nil {
		t.Fatalf("RunInteractive: %v", err)
	}

	if got := fake.CallCount("pass"); got != 2 {
		t.Errorf("CallCount(pass) = %d, want 2", got)
	}
	if got := fake.CallCount("pass init"); got != 1 {
		t.Errorf("CallCount(pass init) = %d, want 1", got)
	}
}

func TestFakeUnscriptedCommandFails(t *testing.T) {
	fake := NewFake()
	if err := fake.Run(context.Background(), "systemctl", "--user", "mask", "x"); err == nil {
		t.Fatal("expected error for unscripted command")
	}
}

func TestFakeLookPath(t *testing.T) {
	fake := NewFake()
	fake.Install("gpg", "pass")

	path, err := fake.LookPath("gpg")
	if err != nil {
		t.Fatalf("LookPath(gpg): %v", err)
	}
	if path != "/usr/bin/gpg" {
		t.Errorf("LookPath(gpg) = %q", path)
	}

	if _, err := fake.LookPath("keychain"); err == nil {
		t.Error("expected error for missing executable")
	}
}

func TestExitCode(t *testing.T) {
	if got := ExitCode(nil); got != -1 {
		t.Errorf("ExitCode(nil) = %d, want -1", got)
	}
	if got := ExitCode(errors.New("plain error")); got != -1 {
		t.Errorf("ExitCode(plain) = %d, want -1", got)
	}
	if got := ExitCode(&ExitError{Code: 2}); got != 2 {
		t.Errorf("ExitCode(ExitError{2}) = %d, want 2", got)
	}
}

func TestExitCodeFromExec(t *testing.T) {
	r := NewExec()
	_, err := r.Output(context.Background(), "sh", "-c", "echo out; exit 3")
	if err == nil {
		t.Fatal("expected failure")
	}
	if got := ExitCode(err); got != 3 {
		t.Errorf("ExitCode = %d, want 3", got)
	}
}

func TestFakeScriptedExitStatus(t *testing.T) {
	fake := NewFake()
	fake.Respond("ssh-add -l", "The agent has no identities.\n", &ExitError{Code: 1})

	out, err := fake.Output(context.Background(), "ssh-add", "-l")
	if err == nil {
		t.Fatal("expected scripted failure")
	}
	if got := ExitCode(err); got != 1 {
		t.Errorf("ExitCode = %d, want 1", got)
	}
	// The fake hands back stdout alongside the error, like a real tool
	// that prints its diagnosis before exiting non-zero.
	if out == "" {
		t.Error("scripted stdout lost on failure")
	}
}

func TestFakeScriptedErrorPropagates(t *testing.T) {
	fake := NewFake()
	scripted := errors.New("exit status 1")
	fake.Respond("pass ls", "", scripted)

	_, err := fake.Output(context.Background(), "pass", "ls")
	if !errors.Is(err, scripted) {
		t.Errorf("err = %v, want scripted error", err)
	}
}
