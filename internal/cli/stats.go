package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/giftledger/internal/amount"
	"github.com/dukerupert/giftledger/internal/ledger"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show ledger totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := ledger.New(e.store).Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "事件数: %d\n", s.Events)
			fmt.Fprintf(out, "礼金记录: %d (有效 %d)\n", s.Gifts, s.ActiveGifts)
			fmt.Fprintf(out, "总金额: %.2f (%s)\n", s.TotalAmount, amount.ToChinese(s.TotalAmount))
			if s.LastModified != nil {
				fmt.Fprintf(out, "最后更新: %s\n", s.LastModified.Local().Format(time.DateTime))
			}
			return nil
		},
	}
}
