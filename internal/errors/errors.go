package errors

import "errors"

// Prerequisite errors indicate a required external tool or input is missing.
var (
	// ErrToolNotFound indicates a required external tool is not on PATH.
	ErrToolNotFound = errors.New("required tool not found on PATH")

	// ErrNoGPGKey indicates no GPG key ID could be resolved from flags,
	// config, or the interactive prompt.
	ErrNoGPGKey = errors.New("no GPG key resolved")
)

// Network errors indicate failures talking to the release host.
var (
	// ErrNoAsset indicates no release artifact matched the platform pattern.
	ErrNoAsset = errors.New("no release asset matches the platform pattern")
)

// Environment state errors indicate the managed environment is not in its
// desired state.
var (
	// ErrAgentSocketInvalid indicates SSH_AUTH_SOCK is unset or does not
	// name an existing socket.
	ErrAgentSocketInvalid = errors.New("agent socket is missing or invalid")

	// ErrVerificationFailed indicates one or more post-setup checks failed.
	ErrVerificationFailed = errors.New("environment verification failed")
)
