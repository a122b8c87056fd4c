package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// numFmtUSD is the built-in "#,##0.00" number format.
const numFmtUSD = 4

var columnWidths = []float64{24, 10, 20, 20, 14, 16, 16, 40, 11, 40}

func writeXLSX(w io.Writer, rows []Row, sheet string) (err error) {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet %q: %w", sheet, err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			r.Name,
			r.Symbol,
			r.MarketCapUSD.InexactFloat64(),
			r.Volume24hUSD.InexactFloat64(),
			r.PriceUSD.InexactFloat64(),
			r.Tier1Exchanges,
			r.Tier2Exchanges,
			strings.Join(r.Exchanges, ", "),
			yesNo(r.MeetsTier),
			strings.Join(r.Pairs, ", "),
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}

	if err := styleSheet(f, sheet, len(rows)); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func styleSheet(f *excelize.File, sheet string, n int) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(Columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("set width %s: %w", col, err)
		}
	}

	if n > 0 {
		money, err := f.NewStyle(&excelize.Style{NumFmt: numFmtUSD})
		if err != nil {
			return fmt.Errorf("create number style: %w", err)
		}
		if err := f.SetCellStyle(sheet, "C2", fmt.Sprintf("E%d", n+1), money); err != nil {
			return fmt.Errorf("style amounts: %w", err)
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
