package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formengine/internal/config"
	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/prompt"
)

// environment holds the collaborators that tests replace.
type environment struct {
	driver    func(out io.Writer) prompt.Driver
	submitter engine.Submitter
}

func defaultEnvironment() environment {
	return environment{driver: prompt.NewSurveyDriver}
}

// rootOptions carries the persistent flags and the lazily built
// application.
type rootOptions struct {
	env        environment
	configPath string
	catalogDir string
	clientType string
	userID     string

	app *application
}

// NewRootCmd creates the root formengine command with all subcommands
// registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultEnvironment())
}

func newRootCmd(env environment) *cobra.Command {
	opts := &rootOptions{env: env}
	root := &cobra.Command{
		Use:           "formengine",
		Short:         "formengine - form configuration and cross-form dependency engine",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "configuration file (YAML or JSON)")
	flags.StringVar(&opts.catalogDir, "catalog", "", "directory of form catalog files (overrides catalog.dir)")
	flags.StringVar(&opts.clientType, "client", "", "client type (overrides client_type)")
	flags.StringVar(&opts.userID, "user", "", "user id recorded in audit entries")

	root.AddCommand(newFormsCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newInitCmd(opts))
	root.AddCommand(newValidateCmd(opts))
	root.AddCommand(newWorkflowCmd(opts))
	root.AddCommand(newFillCmd(opts))
	root.AddCommand(newImportOpenAPICmd())
	root.AddCommand(newServeMetricsCmd(opts))
	return root
}

// load builds the application once per command run.
func (o *rootOptions) load(cmd *cobra.Command, enableMetrics bool) (*application, error) {
	if o.app != nil {
		return o.app, nil
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.catalogDir != "" {
		cfg.Catalog.Dir = o.catalogDir
	}
	if o.clientType != "" {
		cfg.ClientType = o.clientType
	}
	if enableMetrics {
		cfg.Metrics.Enabled = true
	}
	app, err := newApplication(cfg, cmd.ErrOrStderr(), o.env.submitter)
	if err != nil {
		return nil, err
	}
	o.app = app
	return app, nil
}

func writeJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func readJSONObject(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode data %s: %w", path, err)
	}
	return out, nil
}

func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
