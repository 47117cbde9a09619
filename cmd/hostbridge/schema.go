package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hostbridge-dev/hostbridge/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [config|call]",
	Short: "Print the JSON schema of a wire contract document",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		which := "config"
		if len(args) == 1 {
			which = args[0]
		}
		var (
			out []byte
			err error
		)
		switch which {
		case "config":
			out, err = schema.ModuleConfig()
		case "call":
			out, err = schema.Call()
		default:
			return fmt.Errorf("unknown schema %q: want config or call", which)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}
