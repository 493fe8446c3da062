package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formengine/pkg/prompt"
)

type fillOutput struct {
	Values  map[string]any `json:"values"`
	Valid   bool           `json:"valid"`
	Errors  []string       `json:"errors,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	Submit  any            `json:"submit,omitempty"`
}

func newFillCmd(opts *rootOptions) *cobra.Command {
	var submit, cross bool
	cmd := &cobra.Command{
		Use:   "fill <form>",
		Short: "Fill a form interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.load(cmd, false)
			if err != nil {
				return err
			}
			defer app.pruneAudit(time.Now())
			formID := args[0]
			clientType := app.cfg.ClientType

			initial, err := app.engine.InitializeFormState(formID, clientType, opts.userID)
			if initial == nil {
				return err
			}
			if err != nil {
				app.logger.Warn("initial state propagation reported errors", "form", formID, "error", err)
			}
			filler := prompt.NewFiller(opts.env.driver(cmd.ErrOrStderr()), prompt.WithLogger(app.logger))
			values, err := filler.Fill(cmd.Context(), app.engine, formID, clientType, opts.userID, initial)
			if err != nil {
				return err
			}

			result := app.engine.ValidateForm(formID, clientType, values, cross)
			out := fillOutput{Values: values, Valid: result.Valid, Errors: result.Messages()}
			if !result.Valid {
				if err := writeJSON(cmd, out); err != nil {
					return err
				}
				return errInvalid
			}

			if submit {
				submitted := app.engine.SubmitForm(cmd.Context(), formID, clientType, opts.userID, values, cross)
				out.Submit = submitted
				if err := writeJSON(cmd, out); err != nil {
					return err
				}
				if !submitted.Success {
					return fmt.Errorf("submit %s: %w", formID, submitted.Err)
				}
				return nil
			}

			if out.Payload, err = app.engine.GenerateSubmissionPayload(formID, clientType, values); err != nil {
				return err
			}
			return writeJSON(cmd, out)
		},
	}
	cmd.Flags().BoolVar(&submit, "submit", false, "submit the form after filling")
	cmd.Flags().BoolVar(&cross, "cross", false, "include cross-form validation")
	return cmd
}
