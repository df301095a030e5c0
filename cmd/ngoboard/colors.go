package main

import (
	"cmp"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/evanschultz/ngoboard/internal/app"
)

// newColorsCommand previews configured column colors and optionally the ANSI 256 grid.
func newColorsCommand(opts *rootOptions, stdout io.Writer) *cobra.Command {
	var grid bool
	cmd := &cobra.Command{
		Use:   "colors",
		Short: "Preview board column colors and the ANSI 256 palette",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg, _, err := resolveConfig(opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(stdout, columnColorTable(cfg.BoardTemplates()))
			if grid {
				_, _ = fmt.Fprintln(stdout)
				_, _ = fmt.Fprint(stdout, colorGrid())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&grid, "grid", false, "also print the ANSI 256 color grid")
	return cmd
}

// columnColorTable renders one row per configured column with a color swatch.
func columnColorTable(boards []app.BoardTemplate) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers("Board", "Column", "Status", "WIP", "Color").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
			}
			return lipgloss.NewStyle()
		})

	for _, b := range boards {
		for _, col := range b.Columns {
			wip := "-"
			if col.WIPLimit > 0 {
				wip = strconv.Itoa(col.WIPLimit)
			}
			if col.Locked {
				wip += " locked"
			}
			t.Row(b.Name, col.Title, cmp.Or(col.Status, col.ID), wip, swatch(col.Color))
		}
	}
	return t.Render()
}

// swatch renders a color code on its own background; empty codes render as "default".
func swatch(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "default"
	}
	fg := lipgloss.Color("15")
	if n, err := strconv.Atoi(code); err == nil {
		fg = contrastColor(n)
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(code)).
		Foreground(fg).
		Width(8).
		Align(lipgloss.Center).
		Render(code)
}

// colorGrid renders the 16 standard colors, the 216 cube, and the grayscale ramp.
func colorGrid() string {
	var b strings.Builder
	b.WriteString("Standard 16 Colors:\n")
	writeColorBlock(&b, 0, 15, 8)
	b.WriteString("\n216 Color Cube (16-231):\n")
	for i := range 6 {
		writeColorBlock(&b, 16+i*36, 16+(i+1)*36-1, 6)
	}
	b.WriteString("\nGrayscale (232-255):\n")
	writeColorBlock(&b, 232, 255, 12)
	return b.String()
}

func writeColorBlock(b *strings.Builder, start, end, perRow int) {
	count := 0
	for i := start; i <= end; i++ {
		style := lipgloss.NewStyle().
			Background(lipgloss.Color(strconv.Itoa(i))).
			Foreground(contrastColor(i)).
			Width(6).
			Align(lipgloss.Center)
		b.WriteString(style.Render(fmt.Sprintf("%3d", i)))
		count++
		if count%perRow == 0 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	if count%perRow != 0 {
		b.WriteString("\n")
	}
}

// contrastColor picks white text for dark backgrounds and black for light ones.
func contrastColor(index int) lipgloss.Color {
	switch {
	case index < 16:
		switch index {
		case 0, 1, 4, 5, 8:
			return lipgloss.Color("15")
		}
		return lipgloss.Color("0")
	case index >= 232:
		if index < 244 {
			return lipgloss.Color("15")
		}
		return lipgloss.Color("0")
	default:
		return lipgloss.Color("15")
	}
}
