package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/warden/pkg/cli/config"
	"github.com/secmon-lab/warden/pkg/domain/types"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func catalogWithPath(t *testing.T, path string) *config.Catalog {
	t.Helper()
	return config.NewCatalogForTest(path)
}

func TestCatalog_Configure(t *testing.T) {
	t.Run("built-in catalog without a path", func(t *testing.T) {
		var c config.Catalog
		registry, err := c.Configure()
		gt.NoError(t, err).Required()
		gt.Number(t, registry.Len()).Greater(0)

		at, ok := registry.Get("send_email_reply")
		gt.B(t, ok).True()
		gt.Value(t, at.DefaultLevel).Equal(types.AuthorityLevelNotify)
	})

	t.Run("valid catalog file", func(t *testing.T) {
		path := writeCatalog(t, `
[[action_type]]
id = "post_chat_message"
name = "Post chat message"
description = "Post a message to a chat channel"
category = "communication"
default_level = "notify"

[[action_type]]
id = "rotate_api_key"
name = "Rotate API key"
description = "Rotate a service API key"
category = "admin"
default_level = "approval_required"
`)

		registry, err := catalogWithPath(t, path).Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, registry.Len()).Equal(2)

		at, ok := registry.Get("rotate_api_key")
		gt.B(t, ok).True()
		gt.Value(t, at.DefaultLevel).Equal(types.AuthorityLevelApprovalRequired)
	})

	t.Run("duplicate IDs are rejected", func(t *testing.T) {
		path := writeCatalog(t, `
[[action_type]]
id = "post_chat_message"
name = "Post chat message"
category = "communication"
default_level = "notify"

[[action_type]]
id = "post_chat_message"
name = "Post chat message again"
category = "communication"
default_level = "auto"
`)

		_, err := catalogWithPath(t, path).Configure()
		gt.Value(t, err).NotNil()
	})

	t.Run("invalid level is rejected", func(t *testing.T) {
		path := writeCatalog(t, `
[[action_type]]
id = "post_chat_message"
name = "Post chat message"
category = "communication"
default_level = "whenever"
`)

		_, err := catalogWithPath(t, path).Configure()
		gt.Value(t, err).NotNil()
	})

	t.Run("empty catalog file is rejected", func(t *testing.T) {
		path := writeCatalog(t, "")

		_, err := catalogWithPath(t, path).Configure()
		gt.Value(t, err).NotNil()
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := catalogWithPath(t, "/no/such/catalog.toml").Configure()
		gt.Value(t, err).NotNil()
	})
}
