package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formengine/pkg/catalog"
	"github.com/goliatone/go-formengine/pkg/catalog/openapi"
)

func newImportOpenAPICmd() *cobra.Command {
	var opts openapi.Options
	cmd := &cobra.Command{
		Use:   "import-openapi <file> <operation>",
		Short: "Convert an OpenAPI operation into a catalog definition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			def, err := openapi.Import(cmd.Context(), raw, args[1], opts)
			if err != nil {
				return err
			}
			out, err := catalog.Marshal(catalog.Catalog{Forms: []catalog.Definition{def}})
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.FormID, "form-id", "", "form id (defaults to the operation id)")
	flags.StringVar(&opts.Module, "module", "", "module tag of the form")
	flags.StringVar(&opts.Version, "version", "", "form version (defaults to the document version)")
	flags.StringSliceVar(&opts.ClientTypes, "client-types", nil, "client types the form is offered to")
	flags.BoolVar(&opts.ResolveReferences, "resolve-refs", false, "resolve external references and validate the document")
	return cmd
}
