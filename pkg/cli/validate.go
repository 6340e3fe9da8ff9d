package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/cli/config"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var catalogCfg config.Catalog

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate an action type catalog file",
		Flags:   catalogCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			return validateCatalog(os.Stdout, &catalogCfg)
		},
	}
}

func validateCatalog(w io.Writer, catalogCfg *config.Catalog) error {
	okMark := color.New(color.FgGreen).Sprint("✓")
	failMark := color.New(color.FgRed).Sprint("✗")

	actionTypes, err := catalogCfg.Load()
	if err != nil {
		fmt.Fprintf(w, "%s failed to load catalog: %v\n", failMark, err)
		return err
	}

	failures := 0
	for i := range actionTypes {
		at := &actionTypes[i]
		if err := at.Validate(); err != nil {
			fmt.Fprintf(w, "%s %s: %v\n", failMark, at.ID, err)
			failures++
			continue
		}
		fmt.Fprintf(w, "%s %s (%s, default %s)\n", okMark, at.ID, at.Category, at.DefaultLevel)
	}

	if failures > 0 {
		return goerr.New("catalog validation failed",
			goerr.V("failures", failures), goerr.V("total", len(actionTypes)))
	}

	// Registry construction catches duplicate IDs
	registry, err := model.NewActionTypeRegistry(actionTypes)
	if err != nil {
		fmt.Fprintf(w, "%s %v\n", failMark, err)
		return err
	}

	fmt.Fprintf(w, "%s catalog is valid (%d action types)\n", okMark, registry.Len())
	return nil
}
