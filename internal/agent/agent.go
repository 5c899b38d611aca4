// Package agent acquires and inspects the ssh-agent socket through the
// keychain wrapper.
//
// keychain decides whether to start a new agent or attach to a running
// one; latchkey only evaluates the environment assignments it emits and
// validates the resulting socket.
package agent

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	lkerrors "github.com/latchkey-dev/latchkey/internal/errors"
	"github.com/latchkey-dev/latchkey/internal/system"
	"github.com/latchkey-dev/latchkey/internal/utils"
)

// SockEnv is the environment variable naming the agent socket.
const SockEnv = "SSH_AUTH_SOCK"

// Env holds environment assignments parsed from keychain's eval output.
type Env map[string]string

// ParseEvalOutput extracts VAR=value assignments from the sh-style eval
// output keychain emits. Both forms are handled:
//
//	SSH_AUTH_SOCK=/path; export SSH_AUTH_SOCK;
//	export SSH_AUTH_SOCK=/path
//
// Anything else (comments, status chatter) is ignored.
func ParseEvalOutput(out string) Env {
	env := make(Env)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		// Keep only the first ;-separated statement: "VAR=val; export VAR;".
		if idx := strings.Index(line, ";"); idx >= 0 {
			line = line[:idx]
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" || strings.ContainsAny(key, " \t") {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		env[key] = value
	}
	return env
}

// Start invokes keychain in eval mode, applies the emitted assignments to
// the current process environment, and validates the agent socket. The
// returned Env holds exactly what keychain emitted, for rendering as
// export lines.
func Start(ctx context.Context, r system.Runner, keys []string, timeoutMinutes int) (Env, error) {
	if _, err := r.LookPath("keychain"); err != nil {
		return nil, fmt.Errorf("keychain: %w", lkerrors.ErrToolNotFound)
	}

	args := []string{"--quiet", "--eval", "--agents", "ssh"}
	if timeoutMinutes > 0 {
		args = append(args, "--timeout", strconv.Itoa(timeoutMinutes))
	}
	for _, key := range keys {
		args = append(args, utils.ExpandHome(key))
	}

	out, err := r.Output(ctx, "keychain", args...)
	if err != nil {
		return nil, fmt.Errorf("starting keychain: %w", err)
	}

	env := ParseEvalOutput(out)
	for key, value := range env {
		os.Setenv(key, value)
	}

	sock := env[SockEnv]
	if sock == "" {
		// keychain may have attached to an agent that was already
		// exported into our environment.
		sock = os.Getenv(SockEnv)
	}
	if !SocketValid(sock) {
		return nil, fmt.Errorf("%s=%q: %w", SockEnv, sock, lkerrors.ErrAgentSocketInvalid)
	}
	return env, nil
}

// SocketValid reports whether path names an existing socket on disk.
func SocketValid(path string) bool {
	if path == "" {
		return false
	}
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeSocket != 0
}

// Identity is one key held by the agent.
type Identity struct {
	Bits        int
	Fingerprint string
	Comment     string
	Type        string
}

// ListIdentities returns the keys currently loaded in the agent.
// An agent holding no keys is not an error; an unreachable agent is.
func ListIdentities(ctx context.Context, r system.Runner) ([]Identity, error) {
	out, err := r.Output(ctx, "ssh-add", "-l")
	if err != nil {
		// ssh-add exits 1 for an empty agent ("The agent has no
		// identities." goes to stdout) and 2 when no agent is
		// reachable. Only the latter is a failure.
		if system.ExitCode(err) == 1 {
			return nil, nil
		}
		return nil, fmt.Errorf("listing identities: %w", err)
	}
	return parseIdentities(out), nil
}

// parseIdentities parses "2048 SHA256:xxxx comment (RSA)" lines.
func parseIdentities(out string) []Identity {
	var ids []Identity
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "no identities") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		bits, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		id := Identity{Bits: bits, Fingerprint: fields[1]}
		if len(fields) > 2 {
			last := fields[len(fields)-1]
			if strings.HasPrefix(last, "(") && strings.HasSuffix(last, ")") {
				id.Type = strings.Trim(last, "()")
				id.Comment = strings.Join(fields[2:len(fields)-1], " ")
			} else {
				id.Comment = strings.Join(fields[2:], " ")
			}
		}
		ids = append(ids, id)
	}
	return ids
}

// ExportLines renders the environment as eval-able sh export statements,
// sorted stably by the order keychain uses (socket first, then pid).
func (e Env) ExportLines() []string {
	var lines []string
	if v, ok := e[SockEnv]; ok {
		lines = append(lines, fmt.Sprintf("%s=%s; export %s;", SockEnv, v, SockEnv))
	}
	if v, ok := e["SSH_AGENT_PID"]; ok {
		lines = append(lines, fmt.Sprintf("SSH_AGENT_PID=%s; export SSH_AGENT_PID;", v))
	}
	for key, value := range e {
		if key == SockEnv || key == "SSH_AGENT_PID" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s=%s; export %s;", key, value, key))
	}
	return lines
}
