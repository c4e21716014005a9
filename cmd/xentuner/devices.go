package main

import (
	"fmt"
	"strconv"

	"github.com/0xlemi/xentuner/internal/device"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := device.Devices()
			if err != nil {
				return err
			}

			t := table.New().
				Border(lipgloss.RoundedBorder()).
				Headers("Name", "Host API", "In", "Out", "Rate").
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle
					}
					return cellStyle
				})
			for _, d := range devices {
				t.Row(
					d.Name,
					d.HostAPI,
					strconv.Itoa(d.MaxInputChannels),
					strconv.Itoa(d.MaxOutputChannels),
					fmt.Sprintf("%.0f", d.DefaultSampleRate),
				)
			}

			fmt.Fprintln(cmd.OutOrStdout(), t)
			return nil
		},
	}
}
