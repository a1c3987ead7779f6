package styles

import (
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

var (
	Title     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(charmtone.Malibu.Hex()))
	Header    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(vscodePalette.heading))
	Foreign   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EBC2ED"))
	Dim       = lipgloss.NewStyle().Foreground(lipgloss.Color(vscodePalette.rule))
	Selected  = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)
	StatusBar = lipgloss.NewStyle().
			Foreground(lipgloss.Color(vscodePalette.text)).
			Background(lipgloss.Color("#264F78")).
			Padding(0, 1)
	Help = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)
