// Package credentials persists the globally shared Gemini API key in the
// app_settings table. The key is the last tier of credential resolution and
// is readable only for admins or users explicitly granted access.
package credentials

import (
	"context"
	"errors"
	"strings"

	"backdrop/internal/infra"
	"backdrop/internal/sqlinline"
)

const geminiKeySetting = "gemini_api_key"

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// GlobalKey returns the stored system key, or "" when none is configured.
func (s *Store) GlobalKey(ctx context.Context) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectAppSetting, geminiKeySetting)
	var value string
	if err := row.Scan(&value); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// SetGlobalKey stores or replaces the system key.
func (s *Store) SetGlobalKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("gemini api key is required")
	}
	_, err := s.sql.Exec(ctx, sqlinline.QUpsertAppSetting, geminiKeySetting, key)
	return err
}
