package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/0xlemi/xentuner/internal/config"
	"github.com/0xlemi/xentuner/internal/engine"
	"github.com/0xlemi/xentuner/internal/tuning"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	baseStyle   = cellStyle.Bold(true).Foreground(lipgloss.Color("#00FF00"))
)

func newTableCommand(cfg *config.Config) *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print the tuning map around the base frequency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadScale(cfg)
			if err != nil {
				return err
			}
			m, err := tuning.GenerateSize(s, cfg.BaseFrequency, cfg.HalfSize)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s, %d notes, period %.3f cents, base %.3f Hz\n",
				s.Label(), s.Notes(), s.Period(), m.Base())
			fmt.Fprintln(cmd.OutOrStdout(), renderMap(m, rows))
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 12, "entries to show on each side of the base")
	return cmd
}

// mapRows lists the entries within rows of the center. Each row holds the
// index, degree, frequency, cents from the base and the step to the next
// entry.
func mapRows(m *tuning.Map, rows int) [][]string {
	lo := max(m.Center()-rows, 0)
	hi := min(m.Center()+rows, m.Len()-1)

	out := make([][]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		e := m.At(i)

		degree := strconv.Itoa(e.Degree)
		if m.IsCenter(i) {
			degree = engine.BaseLabel
		}

		step := "-"
		if _, next, ok := m.Steps(i); ok {
			step = fmt.Sprintf("%.3f", next)
		}

		out = append(out, []string{
			strconv.Itoa(i - m.Center()),
			degree,
			fmt.Sprintf("%.4f", e.Frequency),
			fmt.Sprintf("%+.3f", 1200*math.Log2(e.Frequency/m.Base())),
			step,
		})
	}
	return out
}

func renderMap(m *tuning.Map, rows int) string {
	data := mapRows(m, rows)
	center := -1
	for i, r := range data {
		if r[1] == engine.BaseLabel {
			center = i
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Offset", "Degree", "Frequency (Hz)", "Cents", "Step").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == center:
				return baseStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}
