package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/ajitpratap0/mojoframe/pkg/engine"
	"github.com/ajitpratap0/mojoframe/pkg/engine/memengine"
	"github.com/ajitpratap0/mojoframe/pkg/logger"
)

// pipelineInfo is the metadata printed by the show command.
type pipelineInfo struct {
	UUID          string                    `json:"uuid"`
	TimeCreated   time.Time                 `json:"time_created"`
	MissingValues []string                  `json:"missing_values"`
	Inputs        []engine.ColumnDescriptor `json:"inputs"`
	Outputs       []engine.ColumnDescriptor `json:"outputs"`
}

func newShowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <pipeline>",
		Short: "Show pipeline metadata and column layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := describePipeline(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			writeText(cmd.OutOrStdout(), info)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print metadata as JSON")
	return cmd
}

func describePipeline(path string) (_ *pipelineInfo, err error) {
	model, err := memengine.Load(path, memengine.WithLogger(logger.Get()))
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, model.Close()) }()

	p, err := model.NewPipeline()
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, p.Close()) }()

	return &pipelineInfo{
		UUID:          model.UUID(),
		TimeCreated:   model.TimeCreated(),
		MissingValues: model.MissingValues(),
		Inputs:        model.Inputs(),
		Outputs:       p.Outputs(),
	}, nil
}

func writeJSON(w io.Writer, info *pipelineInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeText(w io.Writer, info *pipelineInfo) {
	fmt.Fprintf(w, "UUID: %s\n", info.UUID)
	fmt.Fprintf(w, "Created: %s\n", info.TimeCreated.Format(time.RFC3339))
	fmt.Fprintf(w, "Missing values: %s\n", strings.Join(info.MissingValues, ", "))
	fmt.Fprintln(w, "Inputs:")
	for _, c := range info.Inputs {
		fmt.Fprintf(w, "  - %s (%s)\n", c.Name, c.Type)
	}
	fmt.Fprintln(w, "Outputs:")
	for _, c := range info.Outputs {
		fmt.Fprintf(w, "  - %s (%s)\n", c.Name, c.Type)
	}
}
