package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tabular-reconciliation-backend/internal/config"
	"tabular-reconciliation-backend/internal/export"
	"tabular-reconciliation-backend/internal/services/matching"
	service "tabular-reconciliation-backend/internal/services/reconciliation"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile two CSV or XLSX files on selected key columns",
		Long: `reconcile matches the rows of file 1 against file 2 by a composite key
built from the selected columns. Keys are compared case-insensitively after
whitespace normalization. Settings such as RECON_WHITESPACE, RECON_MISSING
and RECON_TIE_BREAK are read from the environment or a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newColumnsCmd())
	return root
}

// newService builds a service without run history; the CLI keeps no state.
func newService() (*service.ReconciliationService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return service.NewReconciliationService(nil, service.Options{
		Normalizer: cfg.Normalizer,
		Loader:     cfg.LoaderOptions(),
		Match:      cfg.MatchOptions(),
		CacheSize:  1,
	})
}

func newColumnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "columns <file>",
		Short: "List the column names of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newService()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			info, err := s.Inspect(service.Upload{Name: filepath.Base(args[0]), Reader: f})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range info.Columns {
				fmt.Fprintln(out, c)
			}
			if info.SkippedRows > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d malformed rows skipped\n", info.SkippedRows)
			}
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	var (
		file1, file2   string
		columns1       []string
		columns2       []string
		mode, tieBreak string
		outPath        string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile file1 against file2 and write the result CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newService()
			if err != nil {
				return err
			}

			f1, err := os.Open(file1)
			if err != nil {
				return err
			}
			defer f1.Close()
			f2, err := os.Open(file2)
			if err != nil {
				return err
			}
			defer f2.Close()

			res, err := s.Run(service.RunInput{
				File1:    service.Upload{Name: filepath.Base(file1), Reader: f1},
				File2:    service.Upload{Name: filepath.Base(file2), Reader: f2},
				Columns1: columns1,
				Columns2: columns2,
				Mode:     mode,
				TieBreak: tieBreak,
			})
			if errors.Is(err, matching.ErrNoColumnsSelected) {
				return fmt.Errorf("%w (use --columns1 and --columns2)", err)
			}
			if err != nil {
				return err
			}

			if err := os.WriteFile(outPath, res.CSV, 0o644); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Summary.String())
			fmt.Fprintf(cmd.OutOrStdout(), "Result written to %s\n", outPath)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&file1, "file1", "", "first file (CSV or XLSX)")
	flags.StringVar(&file2, "file2", "", "second file (CSV or XLSX)")
	flags.StringArrayVarP(&columns1, "columns1", "a", nil, "key column of file1; repeat in key order")
	flags.StringArrayVarP(&columns2, "columns2", "b", nil, "key column of file2; repeat in key order")
	flags.StringVar(&mode, "mode", "", "left (default) or outer")
	flags.StringVar(&tieBreak, "tie-break", "", "last (default) or first")
	flags.StringVarP(&outPath, "out", "o", export.FileName, "output CSV path")
	_ = cmd.MarkFlagRequired("file1")
	_ = cmd.MarkFlagRequired("file2")
	return cmd
}
