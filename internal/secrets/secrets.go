// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key
// name and the file contents (trimmed) are the value.
//
// Supported key files: openreview-username, openreview-password.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/pdiddy/openreview-corpus/pkg/types"
)

// Key files and their environment fallbacks.
const (
	KeyUsername = "openreview-username"
	KeyPassword = "openreview-password"
	EnvUsername = "OPENREVIEW_USERNAME"
	EnvPassword = "OPENREVIEW_PASSWORD"
)

// Load reads all files in dir on fs and returns a map of filename to trimmed
// contents. A missing directory or missing files are not errors; Load
// returns an empty map. Unreadable files are logged and skipped.
func Load(fs afero.Fs, dir string, log logrus.FieldLogger) (map[string]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := afero.ReadFile(fs, filepath.Join(dir, name))
		if err != nil {
			if log != nil {
				log.Warnf("could not read secret %s: %v", name, err)
			}
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Credentials picks the OpenReview login from loaded secrets, falling back
// to the environment through getenv for each missing value.
func Credentials(s map[string]string, getenv func(string) string) types.Credentials {
	pick := func(key, env string) string {
		if v := s[key]; v != "" {
			return v
		}
		if getenv != nil {
			return strings.TrimSpace(getenv(env))
		}
		return ""
	}
	return types.Credentials{
		Username: pick(KeyUsername, EnvUsername),
		Password: pick(KeyPassword, EnvPassword),
	}
}
