package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/boardgen/internal/catalog"
	"github.com/leapstack-labs/boardgen/internal/cli/output"
)

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand() *cobra.Command {
	var showCore bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the discovered drivers",
		Long: `List the display, indev and io_expander drivers discovered under
drivers_dir, merged with any names configured under catalog.

With --core, also list the built-in object names that resolve to a
module-qualified class path.`,
		Example: `  # Show the driver catalog
  boardgen catalog

  # Use another drivers checkout
  boardgen catalog --drivers-dir ../lvgl_micropython/api_drivers/common_api_drivers`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCatalog(cmd, showCore)
		},
	}

	cmd.Flags().BoolVar(&showCore, "core", false, "Also list built-in object types")

	return cmd
}

func runCatalog(cmd *cobra.Command, showCore bool) error {
	cmdCtx, cleanup, err := newCommandContext(cmd, engineOptions{noOutput: true, noState: true})
	if err != nil {
		return err
	}
	defer cleanup()

	cat := cmdCtx.Engine.Catalog()
	r := cmdCtx.Renderer

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(output.CatalogOutput{
			Display:  cat.Names(catalog.FamilyDisplay),
			Indev:    cat.Names(catalog.FamilyIndev),
			Expander: cat.Names(catalog.FamilyExpander),
		})
	}

	total := 0
	rows := make([][]string, 0, len(catalog.Families))
	for _, f := range catalog.Families {
		names := cat.Names(f)
		total += len(names)
		rows = append(rows, []string{f.String(), fmt.Sprintf("%d", len(names)), strings.Join(names, ", ")})
	}

	r.Header(1, fmt.Sprintf("Drivers (%d total)", total))
	r.Table([]string{"Family", "Count", "Drivers"}, rows)

	if showCore {
		r.Println("")
		r.Header(2, "Built-in types")
		core := catalog.Core()
		coreRows := make([][]string, len(core))
		for i, c := range core {
			coreRows[i] = []string{c.Name, c.Path}
		}
		r.Table([]string{"Name", "Class"}, coreRows)
	}
	return nil
}
