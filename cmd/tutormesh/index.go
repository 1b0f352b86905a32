package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/tutormesh"
)

func indexCMD(flags *rootFlags) *cobra.Command {
	var pdfPath string

	index := &cobra.Command{
		Use:   "index",
		Short: "Load, split and embed the PDF into the retrieval datastore",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := flags.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if pdfPath != "" {
				cfg.Retrieval.PDFPath = pdfPath
			}

			n, err := tutormesh.BuildIndex(cmd.Context(), cfg, nil, logger)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "indexed %d chunks from %s into %s\n", n, cfg.Retrieval.PDFPath, cfg.Retrieval.DatastoreDir)

			return err
		},
	}
	index.Flags().StringVar(&pdfPath, "pdf", "", "PDF to index (overrides retrieval.pdf_path)")

	return index
}
