// Package configs manages latchkey's TOML configuration file.
//
// The config file replaces the edit-the-script variables of the shell
// era: the GPG key ID, the SSH identities keychain loads, the hosts that
// get pre-created password-store entries, and the package set. It lives
// at $XDG_CONFIG_HOME/latchkey/config.toml (LATCHKEY_CONFIG_DIR
// overrides the directory, which tests rely on).
package configs
