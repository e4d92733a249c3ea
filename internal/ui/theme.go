package ui

import "charm.land/lipgloss/v2"

type Theme struct {
	Header      lipgloss.Style
	Countdown   lipgloss.Style
	Status      lipgloss.Style
	HelpLine    lipgloss.Style
	PanelTitle  lipgloss.Style
	PanelBorder lipgloss.Style
	PanelBody   lipgloss.Style
	ActiveEdge  lipgloss.Style
	Selected    lipgloss.Style
	Accent      lipgloss.Style
	Pass        lipgloss.Style
	Fail        lipgloss.Style
	Pending     lipgloss.Style
	Muted       lipgloss.Style
	Dirty       lipgloss.Style
	ReadOnly    lipgloss.Style

	// ChromaStyle names the chroma style used for read-only code.
	ChromaStyle string
	BarFrom     string
	BarTo       string
}

func DefaultTheme() Theme {
	return ThemeForVariant("midnight")
}

func ThemeForVariant(variant string) Theme {
	switch variant {
	case "paper":
		return paperTheme()
	case "retro_terminal":
		return retroTerminalTheme()
	default:
		return midnightTheme()
	}
}

func midnightTheme() Theme {
	gold := lipgloss.Color("#F5C26B")
	green := lipgloss.Color("#6BE3A4")
	coral := lipgloss.Color("#FF7A85")
	night := lipgloss.Color("#0F1522")
	navy := lipgloss.Color("#1C2638")
	snow := lipgloss.Color("#E6EDF7")
	cyan := lipgloss.Color("#6FD3FF")
	edge := lipgloss.Color("#43557A")

	return Theme{
		Header: lipgloss.NewStyle().
			Background(night).
			Foreground(snow).
			Padding(0, 1),
		Countdown: lipgloss.NewStyle().
			Background(night).
			Foreground(gold).
			Bold(true),
		Status: lipgloss.NewStyle().
			Background(navy).
			Foreground(snow).
			Padding(0, 1),
		HelpLine: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8A98B5")).
			Padding(0, 1),
		PanelTitle: lipgloss.NewStyle().
			Foreground(cyan).
			Bold(true),
		PanelBorder: lipgloss.NewStyle().
			Foreground(edge),
		PanelBody: lipgloss.NewStyle().
			Foreground(snow),
		ActiveEdge: lipgloss.NewStyle().
			Foreground(cyan),
		Selected: lipgloss.NewStyle().
			Foreground(night).
			Background(cyan),
		Accent:      lipgloss.NewStyle().Foreground(cyan).Bold(true),
		Pass:        lipgloss.NewStyle().Foreground(green).Bold(true),
		Fail:        lipgloss.NewStyle().Foreground(coral).Bold(true),
		Pending:     lipgloss.NewStyle().Foreground(gold),
		Muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("#8A98B5")),
		Dirty:       lipgloss.NewStyle().Foreground(gold).Bold(true),
		ReadOnly:    lipgloss.NewStyle().Foreground(night).Background(gold).Padding(0, 1),
		ChromaStyle: "monokai",
		BarFrom:     "#5EC2FF",
		BarTo:       "#79E6A6",
	}
}

func paperTheme() Theme {
	ink := lipgloss.Color("#1F2430")
	sheet := lipgloss.Color("#FAF7F0")
	rule := lipgloss.Color("#C9C2B2")
	teal := lipgloss.Color("#1F7A8C")
	moss := lipgloss.Color("#3C8D4F")
	brick := lipgloss.Color("#B23A48")
	ochre := lipgloss.Color("#B8860B")

	return Theme{
		Header:      lipgloss.NewStyle().Background(ink).Foreground(sheet).Padding(0, 1),
		Countdown:   lipgloss.NewStyle().Background(ink).Foreground(lipgloss.Color("#F2D16B")).Bold(true),
		Status:      lipgloss.NewStyle().Background(rule).Foreground(ink).Padding(0, 1),
		HelpLine:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6B6556")).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(teal).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(rule),
		PanelBody:   lipgloss.NewStyle().Foreground(ink),
		ActiveEdge:  lipgloss.NewStyle().Foreground(teal),
		Selected:    lipgloss.NewStyle().Foreground(sheet).Background(teal),
		Accent:      lipgloss.NewStyle().Foreground(teal).Bold(true),
		Pass:        lipgloss.NewStyle().Foreground(moss).Bold(true),
		Fail:        lipgloss.NewStyle().Foreground(brick).Bold(true),
		Pending:     lipgloss.NewStyle().Foreground(ochre),
		Muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8577")),
		Dirty:       lipgloss.NewStyle().Foreground(ochre).Bold(true),
		ReadOnly:    lipgloss.NewStyle().Foreground(sheet).Background(brick).Padding(0, 1),
		ChromaStyle: "github",
		BarFrom:     "#1F7A8C",
		BarTo:       "#3C8D4F",
	}
}

func retroTerminalTheme() Theme {
	lime := lipgloss.Color("#9CF5A2")
	amber := lipgloss.Color("#E5D47A")
	red := lipgloss.Color("#FF6B6B")
	deep := lipgloss.Color("#07150A")
	forest := lipgloss.Color("#12301A")
	glow := lipgloss.Color("#C5F7C4")

	return Theme{
		Header:      lipgloss.NewStyle().Background(deep).Foreground(glow).Padding(0, 1),
		Countdown:   lipgloss.NewStyle().Background(deep).Foreground(amber).Bold(true),
		Status:      lipgloss.NewStyle().Background(forest).Foreground(glow).Padding(0, 1),
		HelpLine:    lipgloss.NewStyle().Foreground(lipgloss.Color("#73A17A")).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(amber).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(lipgloss.Color("#1F5C2F")),
		PanelBody:   lipgloss.NewStyle().Foreground(glow),
		ActiveEdge:  lipgloss.NewStyle().Foreground(lime),
		Selected:    lipgloss.NewStyle().Foreground(deep).Background(lime),
		Accent:      lipgloss.NewStyle().Foreground(lime).Bold(true),
		Pass:        lipgloss.NewStyle().Foreground(lime).Bold(true),
		Fail:        lipgloss.NewStyle().Foreground(red).Bold(true),
		Pending:     lipgloss.NewStyle().Foreground(amber),
		Muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("#73A17A")),
		Dirty:       lipgloss.NewStyle().Foreground(amber).Bold(true),
		ReadOnly:    lipgloss.NewStyle().Foreground(deep).Background(amber).Padding(0, 1),
		ChromaStyle: "vim",
		BarFrom:     "#1F5C2F",
		BarTo:       "#9CF5A2",
	}
}
