// Package audit provides a structured audit logger for CLI command
// invocations. It logs command name, resolved configuration, and
// sanitised environment state so operators can trace what happened
// without exposing secret values.
//
// Secrets are logged as presence/absence only — never their values.
package audit

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// LogCommandStart emits a structured audit log entry when a CLI command begins.
// It records the command name, config file source, and sanitised environment.
func LogCommandStart(log *slog.Logger, command string, configPath string) {
	attrs := []slog.Attr{
		slog.String("command", command),
		slog.String("config_file", sanitiseConfigPath(configPath)),
	}

	for _, entry := range auditKeys {
		val := os.Getenv(entry.key)
		if entry.secret {
			attrs = append(attrs, slog.String(entry.key, presence(val)))
		} else {
			attrs = append(attrs, slog.String(entry.key, valOrUnset(val)))
		}
	}

	log.LogAttrs(context.TODO(), slog.LevelInfo, "audit: command start", attrs...)
}

// auditEntry defines an env var to include in the audit log.
type auditEntry struct {
	// key is the environment variable name.
	key string
	// secret indicates the value should be redacted to presence/absence.
	secret bool
}

// auditKeys is the ordered list of env vars included in every audit log entry.
// Connection URLs count as secrets: they routinely embed credentials.
var auditKeys = []auditEntry{
	{"DATABASE_URL", true},
	{"REDIS_URL", true},
	{"OPENAI_API_KEY", true},
	{"OPENAI_BASE_URL", false},
	{"OPENAI_CHAT_MODEL", false},
	{"OPENAI_EMBED_MODEL", false},
	{"EMBEDDING_DIMENSIONS", false},
	{"DUPLICATE_THRESHOLD", false},
	{"BACKFILL_WINDOW", false},
	{"SERVER_HOST", false},
	{"SERVER_PORT", false},
	{"LOG_LEVEL", false},
	{"LOG_FORMAT", false},
}

// presence returns "set" if the value is non-empty, "unset" otherwise.
func presence(v string) string {
	if v != "" {
		return "set"
	}
	return "unset"
}

// valOrUnset returns the value if non-empty, "unset" otherwise.
func valOrUnset(v string) string {
	if v != "" {
		return v
	}
	return "unset"
}

// sanitiseConfigPath returns the config path or "none" if empty.
func sanitiseConfigPath(p string) string {
	if p == "" {
		return "none"
	}
	// Redact home directory for privacy in logs.
	home, err := os.UserHomeDir()
	if err == nil && strings.HasPrefix(p, home) {
		return "~" + p[len(home):]
	}
	return p
}
