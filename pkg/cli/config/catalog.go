package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Catalog holds CLI flags for the action type catalog. Without a catalog
// file the built-in default catalog is used.
type Catalog struct {
	path string
}

// CatalogFile is the TOML shape of a catalog file
type CatalogFile struct {
	ActionTypes []model.ActionType `toml:"action_type"`
}

// Flags returns CLI flags for catalog configuration
func (c *Catalog) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "catalog",
			Usage:       "Path to the action type catalog TOML file (empty uses the built-in catalog)",
			Sources:     cli.EnvVars("WARDEN_CATALOG"),
			Destination: &c.path,
		},
	}
}

// Path returns the configured catalog file path
func (c *Catalog) Path() string {
	return c.path
}

// Load reads and validates the catalog file, falling back to the built-in
// catalog when no path is configured.
func (c *Catalog) Load() ([]model.ActionType, error) {
	if c.path == "" {
		return model.DefaultActionTypes(), nil
	}

	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read catalog file", goerr.V("path", c.path))
	}

	var file CatalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse catalog TOML", goerr.V("path", c.path))
	}
	if len(file.ActionTypes) == 0 {
		return nil, goerr.New("catalog file has no action types", goerr.V("path", c.path))
	}

	return file.ActionTypes, nil
}

// Configure loads the catalog and builds the registry. Duplicate IDs and
// invalid rows are startup errors.
func (c *Catalog) Configure() (*model.ActionTypeRegistry, error) {
	actionTypes, err := c.Load()
	if err != nil {
		return nil, err
	}

	registry, err := model.NewActionTypeRegistry(actionTypes)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid action type catalog", goerr.V("path", c.path))
	}

	if c.path == "" {
		logging.Default().Info("Using built-in action type catalog", "count", registry.Len())
	} else {
		logging.Default().Info("Loaded action type catalog", "path", c.path, "count", registry.Len())
	}

	return registry, nil
}
