package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// errInvalid makes the process exit non-zero after the result is printed.
var errInvalid = errors.New("validation failed")

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var dataPath string
	var cross []string
	var seeds []string
	var crossAll bool
	cmd := &cobra.Command{
		Use:   "validate <form>",
		Short: "Validate form data, optionally across related forms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.load(cmd, false)
			if err != nil {
				return err
			}
			formID := args[0]
			clientType := app.cfg.ClientType

			for _, seed := range seeds {
				seedForm, path, ok := strings.Cut(seed, "=")
				if !ok {
					return fmt.Errorf("seed %q must look like form=file.json", seed)
				}
				values, err := readJSONObject(path)
				if err != nil {
					return err
				}
				mirror(app, seedForm, clientType, opts.userID, values)
			}

			var data map[string]any
			if dataPath != "" {
				if data, err = readJSONObject(dataPath); err != nil {
					return err
				}
				mirror(app, formID, clientType, opts.userID, data)
			}

			// An explicit --cross list replaces the forms implied by the
			// dependency graph.
			others := splitList(cross)
			result := app.engine.ValidateForm(formID, clientType, data, crossAll && len(others) == 0)
			if len(others) > 0 {
				scope := append([]string{formID}, others...)
				result.Merge(app.resolver.ValidateAcrossForms(scope, clientType, false))
			}
			if err := writeJSON(cmd, result); err != nil {
				return err
			}
			if !result.Valid {
				return errInvalid
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "JSON file with the form data")
	cmd.Flags().StringSliceVar(&cross, "cross", nil, "other forms to validate against")
	cmd.Flags().BoolVar(&crossAll, "dependencies", false, "validate against every form the dependency graph links")
	cmd.Flags().StringArrayVar(&seeds, "seed", nil, "tracked values for another form, as form=file.json")
	return cmd
}

// mirror records values in key order so audit output is stable.
func mirror(app *application, formID, clientType, userID string, values map[string]any) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := app.engine.ProcessFieldChange(formID, key, values[key], clientType, userID); err != nil {
			app.logger.Warn("propagation reported errors", "form", formID, "field", key, "error", err)
		}
	}
}
