package cmd

import (
	"strings"
	"testing"

	"github.com/latchkey-dev/latchkey/internal/system"
)

func TestSetupDryRunOnBareSystem(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LATCHKEY_CONFIG_DIR", t.TempDir())

	output, exitCodes, err := runLatchkey(t, system.NewFake(),
		"setup", "--dry-run", "--gpg-key", testKeyID)
	if err != nil {
		t.Fatalf("setup: %v\n%s", err, output)
	}
	if len(exitCodes) != 0 {
		t.Errorf("exit codes = %v, want none", exitCodes)
	}
	if !strings.Contains(output, "would apply") {
		t.Errorf("missing dry-run outcomes:\n%s", output)
	}
	if !strings.Contains(output, "Dry run complete") {
		t.Errorf("missing completion line:\n%s", output)
	}
}

func TestSetupDryRunJSON(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LATCHKEY_CONFIG_DIR", t.TempDir())

	output, _, err := runLatchkey(t, system.NewFake(),
		"setup", "--dry-run", "--json", "--gpg-key", testKeyID)
	if err != nil {
		t.Fatalf("setup: %v\n%s", err, output)
	}
	if !strings.Contains(output, `"outcome": "would apply"`) {
		t.Errorf("JSON missing outcomes:\n%s", output)
	}
	if !strings.Contains(output, `"key_id": "`+testKeyID+`"`) {
		t.Errorf("JSON missing key id:\n%s", output)
	}
}

func TestSetupFatalFailureExitsOne(t *testing.T) {
	fake := setupHealthyEnvironment(t)
	// Store not initialized and init fails mid-run.
	fake.Respond("pass ls", "", &system.ExitError{Code: 1})
	fake.Respond("pass init "+testKeyID, "", &system.ExitError{Code: 2})

	output, exitCodes, err := runLatchkey(t, fake,
		"setup", "--skip-packages", "--skip-gcm")
	if err != nil {
		t.Fatalf("setup: %v\n%s", err, output)
	}
	if len(exitCodes) != 1 || exitCodes[0] != 1 {
		t.Errorf("exit codes = %v, want [1]", exitCodes)
	}
	if !strings.Contains(output, "Setup stopped") {
		t.Errorf("missing failure message:\n%s", output)
	}
}

func TestSetupWithoutKeyFailsBeforeApplying(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LATCHKEY_CONFIG_DIR", t.TempDir())
	fake := system.NewFake()

	output, exitCodes, err := runLatchkey(t, fake, "setup")
	if err != nil {
		t.Fatalf("setup: %v\n%s", err, output)
	}
	// No terminal, no key anywhere: the prompt fails fast.
	if len(exitCodes) == 0 || exitCodes[0] != 1 {
		t.Errorf("exit codes = %v, want [1]", exitCodes)
	}
	if len(fake.Calls) != 0 {
		t.Errorf("commands ran without a resolved key: %v", fake.Calls)
	}
}
