package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/maauso/mediaconv/internal/format"
)

type actionJSON struct {
	Kind           string   `json:"kind"`
	AcceptedInputs []string `json:"accepted_inputs"`
	AllowedOutputs []string `json:"allowed_outputs"`
	DefaultOutput  string   `json:"default_output,omitempty"`
}

func newActionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List actions with their accepted inputs and allowed outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.jsonOut {
				var list []actionJSON
				for _, k := range format.Kinds() {
					list = append(list, actionJSON{
						Kind:           string(k),
						AcceptedInputs: format.AcceptedInputs(k),
						AllowedOutputs: format.AllowedOutputs(k),
						DefaultOutput:  format.DefaultOutput(k),
					})
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tOUTPUTS\tDEFAULT\tINPUTS")
			for _, k := range format.Kinds() {
				inputs := strings.Join(format.AcceptedInputs(k), " ")
				if inputs == "" {
					inputs = "http(s) URL"
				}
				def := format.DefaultOutput(k)
				if def == "" {
					def = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k, strings.Join(format.AllowedOutputs(k), ","), def, inputs)
			}
			return tw.Flush()
		},
	}
}
