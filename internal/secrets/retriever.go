// Package secrets resolves enrollment credentials from a path-addressed secret store.
package secrets

import (
	"context"
	"log/slog"
	"strings"
)

// Credential is held only for the duration of one signing attempt.
type Credential struct {
	Username string
	Password string
}

// LogValue keeps the password out of structured logs.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(slog.String("username", c.Username), slog.String("password", "REDACTED"))
}

//go:generate mockgen -source=retriever.go -destination=../mocks/secrets.go -package=mocks

// Retriever fetches credentials on every call. Implementations must not cache.
type Retriever interface {
	GetCredential(ctx context.Context, path string) (Credential, error)
}

// Lister enumerates the secret names stored under a folder.
type Lister interface {
	ListSecrets(ctx context.Context, path string) ([]string, error)
}

// SplitPath decomposes "mount/sub/path" into its mount and the remainder.
func SplitPath(path string) (mount, subpath string, err error) {
	trimmed := strings.Trim(path, "/")
	mount, subpath, found := strings.Cut(trimmed, "/")
	if !found || mount == "" || strings.Trim(subpath, "/") == "" {
		return "", "", &SecretError{Path: path, Reason: "path must have the form mount/subpath"}
	}
	return mount, strings.Trim(subpath, "/"), nil
}
