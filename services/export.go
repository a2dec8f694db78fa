package services

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"splitpot/backend/dates"
	"splitpot/backend/models"
	"splitpot/backend/money"
	"splitpot/backend/projection"
)

// Sheet names of the projection workbook
const (
	SheetBalances      = "Balances"
	SheetFocus         = "Focus"
	SheetContributions = "Contributions"
)

// ExportInput is everything the projection workbook is built from
type ExportInput struct {
	Participants []models.Participant
	Snapshots    []projection.Snapshot
	// Summary at the end of the window; its pool breakdowns feed the
	// contributions sheet
	Summary *models.DebtSummary
	FocusID string
	Prefs   models.Preferences
}

// PoolSheetName names the sheet holding one pool's series
func PoolSheetName(pool models.Participant) string {
	name := "Pool " + pool.Name
	// Excel caps sheet names at 31 characters
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}

// WriteProjectionWorkbook renders a projection as an XLSX workbook
func WriteProjectionWorkbook(w io.Writer, in ExportInput) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("error creating header style: %w", err)
	}

	var users, pools []models.Participant
	names := make(map[string]string, len(in.Participants))
	for _, p := range in.Participants {
		names[p.ID] = p.Name
		if p.IsPool() {
			pools = append(pools, p)
		} else {
			users = append(users, p)
		}
	}

	if err := f.SetSheetName("Sheet1", SheetBalances); err != nil {
		return err
	}
	balances := [][]any{withDateColumn(participantNames(users))}
	for _, s := range in.Snapshots {
		row := []any{displayDate(s.Date, in.Prefs)}
		for _, u := range users {
			row = append(row, money.Round2(s.Balances[u.ID]))
		}
		balances = append(balances, row)
	}
	if err := writeRows(f, SheetBalances, balances, header); err != nil {
		return err
	}

	for _, pool := range pools {
		sheet := PoolSheetName(pool)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("error creating sheet %s: %w", sheet, err)
		}
		rows := [][]any{append([]any{"Date", "Total", "Expected minimum", "Below expected"}, participantNames(users)...)}
		for _, s := range in.Snapshots {
			ps := s.Pools[pool.ID]
			row := []any{displayDate(s.Date, in.Prefs), money.Round2(ps.Total), money.Round2(ps.ExpectedMinimum), ps.IsBelowExpected}
			for _, u := range users {
				row = append(row, money.Round2(ps.Ownership[u.ID]))
			}
			rows = append(rows, row)
		}
		if err := writeRows(f, sheet, rows, header); err != nil {
			return err
		}
	}

	if in.FocusID != "" {
		if _, err := f.NewSheet(SheetFocus); err != nil {
			return fmt.Errorf("error creating focus sheet: %w", err)
		}
		var others []models.Participant
		for _, u := range users {
			if u.ID != in.FocusID {
				others = append(others, u)
			}
		}
		rows := [][]any{withDateColumn(participantNames(others))}
		for _, s := range in.Snapshots {
			row := []any{displayDate(s.Date, in.Prefs)}
			for _, o := range others {
				row = append(row, money.Round2(s.Focus[o.ID]))
			}
			rows = append(rows, row)
		}
		if err := writeRows(f, SheetFocus, rows, header); err != nil {
			return err
		}
	}

	if in.Summary != nil && len(in.Summary.PoolOwnerships) > 0 {
		if _, err := f.NewSheet(SheetContributions); err != nil {
			return fmt.Errorf("error creating contributions sheet: %w", err)
		}
		rows := [][]any{{"Pool", "Participant", "Year", "Month", "Contributed", "Consumed"}}
		for _, po := range in.Summary.PoolOwnerships {
			for _, share := range po.Participants {
				rows = append(rows, monthlyShareRows(names[po.PoolID], names[share.ParticipantID], share, in.Prefs)...)
			}
		}
		if err := writeRows(f, SheetContributions, rows, header); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// monthlyShareRows lists a participant's pool movements month by month
func monthlyShareRows(pool, participant string, share models.ParticipantOwnership, prefs models.Preferences) [][]any {
	type monthKey struct{ year, month int }
	contributed := make(map[monthKey]float64)
	consumed := make(map[monthKey]float64)
	var order []monthKey
	add := func(groups []projection.YearGroup[models.BreakdownEntry], into map[monthKey]float64) {
		for _, y := range groups {
			for _, m := range y.Months {
				k := monthKey{y.Year, int(m.Month)}
				if _, seen := contributed[k]; !seen {
					if _, seen := consumed[k]; !seen {
						order = append(order, k)
					}
				}
				into[k] += m.Total
			}
		}
	}
	add(projection.GroupEntries(share.ContributedBreakdown), contributed)
	add(projection.GroupEntries(share.ConsumedBreakdown), consumed)

	sort.Slice(order, func(i, j int) bool {
		if order[i].year != order[j].year {
			return order[i].year < order[j].year
		}
		return order[i].month < order[j].month
	})

	rows := make([][]any, 0, len(order))
	for _, k := range order {
		rows = append(rows, []any{
			pool, participant, k.year, k.month,
			money.FormatCurrency(contributed[k], prefs),
			money.FormatCurrency(consumed[k], prefs),
		})
	}
	return rows
}

func participantNames(ps []models.Participant) []any {
	out := make([]any, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func withDateColumn(cols []any) []any {
	return append([]any{"Date"}, cols...)
}

func displayDate(day string, prefs models.Preferences) string {
	d, err := dates.ParseLocalDate(day)
	if err != nil {
		return day
	}
	return dates.FormatDateExact(d, prefs.DateFormat)
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("error writing %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, headerStyle)
}
