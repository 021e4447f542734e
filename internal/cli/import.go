package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukerupert/giftledger/internal/backup"
	"github.com/dukerupert/giftledger/internal/ledger"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Merge a backup file into the ledger",
		Long: `Merge a backup file into the ledger. Events and gifts whose id is
already present are kept as they are and counted as conflicts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !strings.EqualFold(filepath.Ext(path), ".json") {
				return fmt.Errorf("请选择 JSON 格式的备份文件: %s", path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			rec := backup.NewReconciler(ledger.New(e.store), e.logger.With("component", "backup"))
			result, err := rec.ImportBytes(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "导入成功：新增 %d 个事件，%d 条礼金记录，跳过 %d 条重复记录\n",
				result.Events, result.Gifts, result.Conflicts)
			return nil
		},
	}
}
