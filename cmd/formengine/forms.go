package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formengine/pkg/model"
)

func newFormsCmd(opts *rootOptions) *cobra.Command {
	var module string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "forms",
		Short: "List registered forms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.load(cmd, false)
			if err != nil {
				return err
			}
			entries := app.registry.All()
			if module != "" {
				entries = app.registry.ByModule(module)
			}
			if opts.clientType != "" {
				entries = filterClient(entries, opts.clientType)
			}
			if asJSON {
				return writeJSON(cmd, entries)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tMODULE\tTITLE\tCLIENTS")
			for _, entry := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.ID, entry.Module, entry.Title, strings.Join(entry.ClientTypes, ","))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&module, "module", "", "only list forms of this module")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}

func filterClient(entries []model.FormEntry, clientType string) []model.FormEntry {
	var out []model.FormEntry
	for _, entry := range entries {
		if entry.AppliesTo(clientType) {
			out = append(out, entry)
		}
	}
	return out
}
