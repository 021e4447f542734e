package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/giftledger/internal/backup"
	"github.com/dukerupert/giftledger/internal/export"
	"github.com/dukerupert/giftledger/internal/ledger"
)

type exportOptions struct {
	eventID string
	output  string
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger as a JSON backup or a spreadsheet",
	}
	cmd.AddCommand(newExportJSONCmd(opts), newExportXLSXCmd(opts))
	return cmd
}

func newExportJSONCmd(opts *rootOptions) *cobra.Command {
	eo := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "json",
		Short: "Write a JSON backup of every event, or of one event with --event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			exp := backup.NewExporter(ledger.New(e.store))
			now := time.Now()

			var (
				name string
				doc  any
			)
			if eo.eventID != "" {
				d, err := exp.ExportEvent(ctx, eo.eventID)
				if err != nil {
					return err
				}
				doc, name = d, backup.EventFilename(d.Events[0].Name, now)
			} else {
				d, err := exp.ExportAll(ctx)
				if err != nil {
					return err
				}
				doc, name = d, backup.AllFilename(now)
			}

			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("encode backup: %w", err)
			}
			return writeOutput(cmd, eo.output, name, bytes.NewReader(append(data, '\n')))
		},
	}
	cmd.Flags().StringVar(&eo.eventID, "event", "", "export only this event id")
	cmd.Flags().StringVarP(&eo.output, "output", "o", "", `output file ("-" for stdout, default a dated file name)`)
	return cmd
}

func newExportXLSXCmd(opts *rootOptions) *cobra.Command {
	eo := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "xlsx",
		Short: "Write one event's gifts and summary as an Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			l := ledger.New(e.store)
			ev, err := l.EventByID(ctx, eo.eventID)
			if err != nil {
				return err
			}
			gifts, err := l.GiftsByEvent(ctx, ev.ID)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := export.WriteWorkbook(&buf, *ev, gifts, time.Local); err != nil {
				return err
			}
			return writeOutput(cmd, eo.output, export.WorkbookFilename(*ev, time.Now()), &buf)
		},
	}
	cmd.Flags().StringVar(&eo.eventID, "event", "", "event id (required)")
	cmd.Flags().StringVarP(&eo.output, "output", "o", "", `output file ("-" for stdout, default a dated file name)`)
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

// writeOutput sends r to stdout when output is "-", otherwise to output or,
// if that is empty, to defaultName in the working directory.
func writeOutput(cmd *cobra.Command, output, defaultName string, r io.Reader) error {
	if output == "-" {
		_, err := io.Copy(cmd.OutOrStdout(), r)
		return err
	}
	if output == "" {
		output = defaultName
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "已导出到 %s\n", output)
	return nil
}
