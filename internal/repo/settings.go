package repo

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gatehouse-ai/gatehouse/internal/logging"
)

// SettingsDir and SettingsFile locate the project-local settings artifact
// inside a repository checkout.
const (
	SettingsDir  = ".gatehouse"
	SettingsFile = "settings.json"
)

// Settings is the schema of the project-local settings artifact. Allow
// rules are bare tool names ("Write") or command patterns ("Bash(git *)").
type Settings struct {
	Permissions SettingsPermissions `json:"permissions"`
}

// SettingsPermissions holds the allow rules of the settings artifact.
type SettingsPermissions struct {
	Allow []string `json:"allow"`
}

// SettingsPath returns the settings artifact path for a repository checkout.
func SettingsPath(repoPath string) string {
	return filepath.Join(repoPath, SettingsDir, SettingsFile)
}

// LoadSettings reads the settings artifact for the repository and refreshes
// the rule cache. A missing file yields empty settings.
func (s *Service) LoadSettings(ctx context.Context, repositoryID string) (*Settings, error) {
	repo, err := s.Get(ctx, repositoryID)
	if err != nil {
		return nil, err
	}

	settings, err := readSettings(SettingsPath(repo.Path))
	if err != nil {
		return nil, err
	}
	s.setRules(repositoryID, settings.Permissions.Allow)
	return settings, nil
}

// MirrorGrant appends a rule to the settings artifact. This is the
// best-effort secondary write behind project-scoped grants: it is retried
// with capped backoff, and a final failure is logged, never returned as a
// failure of the grant itself.
func (s *Service) MirrorGrant(ctx context.Context, repositoryID, rule string) {
	repo, err := s.Get(ctx, repositoryID)
	if err != nil {
		log := logging.Component("repo")
		log.Warn().
			Err(err).
			Str("repositoryID", repositoryID).
			Msg("settings mirror skipped: repository not resolvable")
		return
	}

	path := SettingsPath(repo.Path)
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(50*time.Millisecond),
		backoff.WithMaxInterval(500*time.Millisecond),
	), 3), ctx)

	err = backoff.Retry(func() error {
		return appendRule(path, rule)
	}, policy)
	if err != nil {
		log := logging.Component("repo")
		log.Warn().
			Err(err).
			Str("path", path).
			Str("rule", rule).
			Msg("settings mirror write failed; repository grant stands")
		return
	}

	if settings, err := readSettings(path); err == nil {
		s.setRules(repositoryID, settings.Permissions.Allow)
	}
}

func readSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil
		}
		return nil, err
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func appendRule(path, rule string) error {
	settings, err := readSettings(path)
	if err != nil {
		return err
	}

	for _, existing := range settings.Permissions.Allow {
		if existing == rule {
			return nil
		}
	}
	settings.Permissions.Allow = append(settings.Permissions.Allow, rule)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
