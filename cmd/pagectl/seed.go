package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"medianav/domain/media"
	"medianav/infrastructure/factories"
	"medianav/logging"
)

var (
	seedCount   int
	seedReplace bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the sqlite catalog with generated entries",
	Long: `Seed writes --count generated catalog entries to the database at DB_PATH.
Entries are upserted by position, so seeding twice is safe. --replace empties
the catalog first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedCount < 0 {
			return fmt.Errorf("--count cannot be negative")
		}
		ctx := cmd.Context()

		db, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := factories.NewRepositoryFactory(db).CreateMediaRepository()
		start := time.Now()

		if seedReplace {
			if err := repo.DeleteAll(ctx); err != nil {
				return fmt.Errorf("clear catalog: %w", err)
			}
		}
		if err := repo.SaveBatch(ctx, media.Generate(seedCount)); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}

		total, err := repo.Count(ctx)
		if err != nil {
			return fmt.Errorf("count catalog: %w", err)
		}
		logging.Default().Performance("seed", time.Since(start))
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d entries, catalog now holds %d\n", seedCount, total)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVarP(&seedCount, "count", "n", 1000, "number of entries to generate")
	seedCmd.Flags().BoolVar(&seedReplace, "replace", false, "delete existing entries first")
}
