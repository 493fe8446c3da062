package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formengine/pkg/engine"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	var dataPath string
	cmd := &cobra.Command{
		Use:   "config <form>",
		Short: "Print the effective configuration of a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.load(cmd, false)
			if err != nil {
				return err
			}
			var data map[string]any
			if dataPath != "" {
				if data, err = readJSONObject(dataPath); err != nil {
					return err
				}
			}
			config, ok := app.engine.GenerateFormConfig(args[0], app.cfg.ClientType, opts.userID, data)
			if !ok {
				return fmt.Errorf("%w: %s", engine.ErrFormNotFound, args[0])
			}
			return writeJSON(cmd, config)
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "JSON file with form data evaluated by conditionals")
	return cmd
}

func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init <form>",
		Short: "Print the initial state of a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.load(cmd, false)
			if err != nil {
				return err
			}
			state, err := app.engine.InitializeFormState(args[0], app.cfg.ClientType, opts.userID)
			if state == nil {
				return err
			}
			if err != nil {
				app.logger.Warn("initialization reported propagation errors", "form", args[0], "error", err)
			}
			return writeJSON(cmd, state)
		},
	}
}

func newWorkflowCmd(opts *rootOptions) *cobra.Command {
	var completed []string
	cmd := &cobra.Command{
		Use:   "workflow <form>...",
		Short: "Print the workflow status of forms",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.load(cmd, false)
			if err != nil {
				return err
			}
			for _, formID := range splitList(completed) {
				if err := app.engine.ProcessFieldChange(formID, "id", formID, app.cfg.ClientType, opts.userID); err != nil {
					return err
				}
			}
			return writeJSON(cmd, app.resolver.GetWorkflowPath(args, app.cfg.ClientType))
		},
	}
	cmd.Flags().StringSliceVar(&completed, "completed", nil, "forms to treat as already submitted")
	return cmd
}
