package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openxnat/xnat-go/internal/config"
	"github.com/openxnat/xnat-go/internal/ledger"
)

const defaultHistoryLimit = 20

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent transfers",
		Long: `List recent uploads and downloads from the local transfer ledger,
including checksums and whether post-transfer verification passed.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "maximum number of entries to show")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()

	path := config.LedgerPath()
	if path == "" {
		return errors.New("cannot determine transfer ledger path")
	}

	limit, _ := cmd.Flags().GetInt("limit") //nolint:errcheck // flag is registered

	ldg, err := ledger.Open(cmd.Context(), path, logger)
	if err != nil {
		return err
	}
	defer ldg.Close()

	transfers, err := ldg.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(transfers)
	}

	if len(transfers) == 0 {
		fmt.Println("No transfers recorded.")
		return nil
	}

	headers := []string{"WHEN", "DIR", "REMOTE", "LOCAL", "SIZE", "OUTCOME"}
	rows := make([][]string, len(transfers))

	for i, t := range transfers {
		rows[i] = []string{
			formatTime(t.At.Local()),
			t.Direction,
			t.RemoteURI,
			t.LocalPath,
			formatSize(t.Size),
			t.Outcome,
		}
	}

	printTable(os.Stdout, headers, rows)

	return nil
}
