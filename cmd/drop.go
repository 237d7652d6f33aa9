package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dropForce    bool
	dropDataOnly bool
)

// dropCmd deletes the metrics database file.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the metrics database",
	Long: `Permanently delete the SQLite metrics database. All cached events and
recorded runs will be lost. With --data-only the file is kept and every table
is emptied instead. Re-run 'fbmetrics fetch' afterwards to rebuild.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().BoolVar(&dropDataOnly, "data-only", false, "empty the tables but keep the file")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", cfg.DBPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}

	if dropDataOnly {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Drop(); err != nil {
			return fmt.Errorf("clear database: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Cleared: %s\n", cfg.DBPath)
		return nil
	}

	if err := os.Remove(cfg.DBPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	// WAL side files
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(cfg.DBPath + suffix)
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", cfg.DBPath)
	return nil
}
