package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dukerupert/giftledger/internal/amount"
	"github.com/dukerupert/giftledger/internal/backup"
	"github.com/dukerupert/giftledger/internal/model"
)

const (
	DetailSheet  = "礼金明细"
	SummarySheet = "统计汇总"

	timeLayout = "2006-01-02 15:04:05"
)

var detailHeader = []any{"序号", "姓名", "金额", "金额大写", "支付方式", "备注", "录入时间"}

// Workbook builds the two-sheet workbook for one event. Abolished gifts are
// left out; with nothing left it fails with model.ErrEmptyResult.
func Workbook(event model.Event, gifts []model.GiftRecord, loc *time.Location) (*excelize.File, error) {
	active := Active(gifts)
	if len(active) == 0 {
		return nil, model.ErrEmptyResult
	}
	if loc == nil {
		loc = time.Local
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", DetailSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeDetail(f, active, loc); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("add summary sheet: %w", err)
	}
	if err := writeSummary(f, event, Summarize(active), loc); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WriteWorkbook builds the workbook and streams it to w.
func WriteWorkbook(w io.Writer, event model.Event, gifts []model.GiftRecord, loc *time.Location) error {
	f, err := Workbook(event, gifts, loc)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WorkbookFilename names the workbook download for event.
func WorkbookFilename(event model.Event, now time.Time) string {
	return fmt.Sprintf("礼簿_%s_%s.xlsx", backup.SafeName(event.Name), now.Format("20060102"))
}

func writeDetail(f *excelize.File, gifts []model.GiftRecord, loc *time.Location) error {
	if err := f.SetSheetRow(DetailSheet, "A1", &detailHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, g := range gifts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			i + 1,
			g.Name,
			g.Amount,
			amount.ToChinese(g.Amount),
			PaymentLabel(g.Type),
			g.Remark,
			formatTime(g.Timestamp, loc),
		}
		if err := f.SetSheetRow(DetailSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(DetailSheet, "A1", "G1", bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	for col, width := range map[string]float64{"A": 8, "B": 16, "C": 12, "D": 28, "E": 12, "F": 24, "G": 20} {
		if err := f.SetColWidth(DetailSheet, col, col, width); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}
	return nil
}

func writeSummary(f *excelize.File, event model.Event, s Summary, loc *time.Location) error {
	rows := [][]any{
		{"事件名称", event.Name},
		{"开始时间", formatTime(event.StartDateTime, loc)},
		{"结束时间", formatTime(event.EndDateTime, loc)},
		{"记账人", event.Recorder},
		{"总笔数", s.Count},
		{"总金额", s.Total},
		{"金额大写", s.TotalWords},
		{},
		{"支付方式", "笔数", "金额", "金额大写"},
	}
	for _, t := range s.ByType {
		rows = append(rows, []any{t.Label, t.Count, t.Total, amount.ToChinese(t.Total)})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 14); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	return f.SetColWidth(SummarySheet, "B", "D", 28)
}

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(timeLayout)
}
