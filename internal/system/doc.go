// Package system abstracts invocation of the external tools latchkey
// drives (keychain, pass, gpg, git, systemctl, apt-get, dpkg).
//
// Every state query and mutation goes through a Runner, so the
// reconciliation and verification logic stays testable without a real
// headless host. Fake is a scriptable Runner for tests.
package system
