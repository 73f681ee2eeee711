package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GoArmGo/BookWave/internal/di"
	"github.com/GoArmGo/BookWave/internal/importer"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		dataDir      string
		mirrorCovers bool
	)

	cmd := &cobra.Command{
		Use:   "bookwave-import",
		Short: "Заполняет пустой каталог BookWave из CSV файлов",
		Long: "Импортирует books.csv, users.csv и ratings.csv из каталога данных.\n" +
			"Таблицы, в которых уже есть записи, пропускаются.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps, err := di.BuildImporter(mirrorCovers)
			if err != nil {
				return err
			}
			defer deps.Close()

			if dataDir == "" {
				dataDir = deps.Config.DataDir
			}

			summary, err := deps.Importer.Run(ctx, importer.Options{DataDir: dataDir, MirrorCovers: mirrorCovers})
			if err != nil {
				deps.Logger.Error("catalog import failed", "data_dir", dataDir, "error", err)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"books: %d, users: %d, ratings: %d, skipped rows: %d, covers queued: %d\n",
				summary.Books, summary.Users, summary.Ratings, summary.Skipped, summary.CoversQueued,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "каталог с CSV файлами (по умолчанию DATA_DIR)")
	cmd.Flags().BoolVar(&mirrorCovers, "mirror-covers", false, "поставить задачи зеркалирования обложек в очередь")
	return cmd
}
