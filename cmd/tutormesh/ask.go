package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/tutormesh"
)

func askCMD(flags *rootFlags) *cobra.Command {
	var parallel bool

	ask := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if parallel {
				cfg.Supervisor.Parallel = true
			}

			tutor, err := tutormesh.New(cmd.Context(), cfg, func(o *tutormesh.Options) {
				o.Logger = logger
			})
			if err != nil {
				return err
			}
			defer tutor.Close()

			answer, err := tutor.Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), answer)

			return err
		},
	}
	ask.Flags().BoolVar(&parallel, "parallel", false, "run retrieval and tools concurrently")

	return ask
}
