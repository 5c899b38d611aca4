package services

import (
	"context"
	"errors"
	"testing"

	"github.com/latchkey-dev/latchkey/internal/system"
)

func TestMaskIsAdvisory(t *testing.T) {
	m := &Mask{}
	if !m.Advisory() {
		t.Error("masking must be advisory")
	}
}

func TestCheckNoSystemd(t *testing.T) {
	m := &Mask{Runner: system.NewFake()}
	satisfied, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !satisfied {
		t.Error("a host without systemctl has nothing to mask")
	}
}

func TestCheckAlreadyMasked(t *testing.T) {
	fake := system.NewFake()
	fake.Install("systemctl")
	units := []string{"gcr-ssh-agent.socket"}
	fake.Respond("systemctl --user is-enabled gcr-ssh-agent.socket", "masked", errors.New("exit status 1"))

	m := &Mask{Runner: fake, Units: units}
	satisfied, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !satisfied {
		t.Error("masked unit should satisfy the check")
	}
}

func TestCheckMissingUnitCounts(t *testing.T) {
	fake := system.NewFake()
	fake.Install("systemctl")
	fake.Respond("systemctl --user is-enabled gcr-ssh-agent.socket", "",
		errors.New("exit status 4: Failed to get unit file state: No such file or directory"))

	m := &Mask{Runner: fake, Units: []string{"gcr-ssh-agent.socket"}}
	satisfied, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !satisfied {
		t.Error("absent unit should satisfy the check")
	}
}

func TestApplyMasksEnabledUnits(t *testing.T) {
	fake := system.NewFake()
	fake.Install("systemctl")
	fake.Respond("systemctl --user is-enabled gcr-ssh-agent.socket", "enabled", nil)
	fake.Respond("systemctl --user is-enabled gnome-keyring-daemon.service", "masked", errors.New("exit status 1"))
	fake.Respond("systemctl --user mask --now gcr-ssh-agent.socket", "", nil)

	m := &Mask{Runner: fake, Units: []string{"gcr-ssh-agent.socket", "gnome-keyring-daemon.service"}}
	if err := m.Apply(context.Background()); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if got := fake.CallCount("systemctl --user mask --now gcr-ssh-agent.socket"); got != 1 {
		t.Errorf("enabled unit masked %d times, want 1", got)
	}
	if got := fake.CallCount("systemctl --user mask --now gnome-keyring-daemon.service"); got != 0 {
		t.Errorf("masked unit re-masked %d times, want 0", got)
	}
}

func TestApplyCollectsFailures(t *testing.T) {
	fake := system.NewFake()
	fake.Install("systemctl")
	fake.Respond("systemctl --user is-enabled gcr-ssh-agent.socket", "enabled", nil)
	fake.Respond("systemctl --user mask --now gcr-ssh-agent.socket", "", errors.New("dbus unavailable"))

	m := &Mask{Runner: fake, Units: []string{"gcr-ssh-agent.socket"}}
	if err := m.Apply(context.Background()); err == nil {
		t.Error("expected error naming the unmaskable unit")
	}
}
