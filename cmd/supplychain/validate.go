package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"supplychain/internal/config"
	"supplychain/internal/report"
)

func newValidateCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the pipeline configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.LoadFile(f.configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			issues := config.ValidatePipeline(p, report.IDs()...)
			for _, iss := range issues {
				fmt.Fprintln(out, iss.Error())
			}
			if config.HasErrors(issues) {
				return fmt.Errorf("configuration is invalid: %s", f.configPath)
			}
			fmt.Fprintf(out, "configuration is valid: %s\n", f.configPath)
			return nil
		},
	}
}
