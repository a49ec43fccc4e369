package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nsharda/inklet/internal/viewer"
)

func (m *model) View() string {
	switch m.stage {
	case stageWelcome:
		return m.viewWelcome()
	case stageUploading:
		return m.viewUploading()
	case stageReading:
		return m.viewReading()
	default:
		return ""
	}
}

func (m *model) viewWelcome() string {
	var form strings.Builder
	form.WriteString(sectionHeaderStyle.Render("Upload PDF documents"))
	form.WriteRune('\n')
	form.WriteString(m.composer.View())
	form.WriteRune('\n')
	form.WriteString(helperStyle.Render("Space-separated paths; anything that is not a .pdf is skipped."))
	form.WriteRune('\n')
	form.WriteString(helperStyle.Render(m.infoMessage))
	if m.errorMessage != "" {
		form.WriteRune('\n')
		form.WriteString(errorStyle.Render(m.errorMessage))
	}
	return joinNonEmpty([]string{m.heroView(), form.String(), m.statusLine()})
}

func (m *model) viewUploading() string {
	body := fmt.Sprintf("%s Uploading and indexing documents…", m.spinner.View())
	return joinNonEmpty([]string{m.heroView(), body, m.statusLine()})
}

func (m *model) viewReading() string {
	m.refreshViewportIfDirty()
	parts := []string{m.heroView(), m.tabBarView(), m.viewport.View()}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		message := m.infoMessage
		if m.anyLoading() {
			message = fmt.Sprintf("%s %s", m.spinner.View(), message)
		}
		parts = append(parts, helperStyle.Render(message))
	}
	if m.composer.Focused() {
		parts = append(parts, m.composerPanel())
	}
	parts = append(parts, m.statusLine())
	if m.helpVisible {
		parts = append(parts, m.keyLegendView())
	}
	return joinNonEmpty(parts)
}

func (m *model) composerPanel() string {
	label := "Composer"
	switch m.composerMode {
	case composerModeUpload:
		label = "Upload"
	case composerModePage:
		label = "Go to page"
	case composerModeSelection:
		label = "Text selection"
	case composerModeChat:
		label = "Chat"
	case composerModeSearch:
		label = "Library filter"
	}
	return joinNonEmpty([]string{
		sectionHeaderStyle.Render(label),
		m.composer.View(),
		helperStyle.Render("Enter submits · Esc cancels"),
	})
}

func (m *model) tabBarView() string {
	cells := make([]string, 0, len(tabSequence))
	for _, t := range tabSequence {
		label := t.label()
		switch t {
		case tabRelated:
			if n := len(m.related); n > 0 {
				label = fmt.Sprintf("%s (%d)", label, n)
			}
		case tabInsights:
			if n := len(m.insights); n > 0 {
				label = fmt.Sprintf("%s (%d)", label, n)
			}
		case tabLibrary:
			if n := m.config.Store.Len(); n > 0 {
				label = fmt.Sprintf("%s (%d)", label, n)
			}
		}
		if t == m.activeTab {
			cells = append(cells, activeTabStyle.Render(label))
		} else {
			cells = append(cells, inactiveTabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m *model) statusLine() string {
	stats := []string{}
	if m.currentDoc != "" {
		stats = append(stats, previewText(m.currentDoc, 32))
		stats = append(stats, fmt.Sprintf("strategy %s", m.strategy))
		if m.viewerState.Phase == viewer.PhaseReady && m.viewerState.TotalPages > 0 {
			stats = append(stats, fmt.Sprintf("p.%d/%d", m.viewerState.CurrentPage, m.viewerState.TotalPages))
		}
	}
	if m.selectionText != "" {
		stats = append(stats, fmt.Sprintf("selection %d chars", len(m.selectionText)))
	}
	if m.healthLine != "" {
		stats = append(stats, m.healthLine)
	}
	if badges := m.jobStatusBadges(); len(badges) > 0 {
		stats = append(stats, badges...)
	}
	if len(stats) == 0 {
		return ""
	}
	return statusBarStyle.Render(strings.Join(stats, "  ·  "))
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	hints := []keyHint{
		{"Tab", "Next pane"},
		{"u", "Upload PDFs"},
		{"s", "Select passage"},
		{"o", "Audio overview"},
		{"1-4", "Viewer strategy"},
		{"n/p", "Next/prev page"},
		{"+/-", "Zoom"},
		{"g", "Go to page"},
		{"/", "Filter library"},
		{"t", "Re-sort library"},
		{"?", "Toggle cheatsheet"},
		{"Ctrl+C", "Quit"},
	}
	rows := []string{sectionHeaderStyle.Render("Keyboard Cheatsheet")}
	const columns = 3
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Description)
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func (m *model) heroView() string {
	logo := renderLogo()
	if m.currentDoc == "" {
		return lipgloss.JoinVertical(
			lipgloss.Left,
			logo,
			taglineStyle.Render(heroTagline),
		)
	}

	doc, _ := m.config.Store.Get(m.currentDoc)
	title := heroTitleStyle.Render(previewText(m.currentDoc, 48))
	meta := []string{helperStyle.Render(fmt.Sprintf("Sections: %d", len(doc.Sections)))}
	if doc.Status != "" {
		meta = append(meta, helperStyle.Render("Status: "+doc.Status))
	}
	content := strings.Join(append([]string{title}, meta...), "\n")
	summary := heroBoxStyle.Render(content)
	panel := lipgloss.JoinHorizontal(lipgloss.Top, logo, heroSummaryStyle.Render(summary))
	return lipgloss.JoinVertical(lipgloss.Left, panel, taglineStyle.Render(heroTagline))
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func renderLogo() string {
	if len(logoArtLines) == 0 {
		return ""
	}
	width := 0
	lineRunes := make([][]rune, len(logoArtLines))
	for i, line := range logoArtLines {
		runes := []rune(line)
		lineRunes[i] = runes
		if len(runes) > width {
			width = len(runes)
		}
	}
	width += 1
	height := len(logoArtLines) + 1

	type cell struct {
		r     rune
		style lipgloss.Style
	}

	grid := make([][]cell, height)
	for i := range grid {
		grid[i] = make([]cell, width)
	}

	for y, runes := range lineRunes {
		for x, r := range runes {
			if r == ' ' {
				continue
			}
			if y+1 < height && x+1 < width {
				grid[y+1][x+1] = cell{r: r, style: logoShadowStyle}
			}
		}
	}

	for y, runes := range lineRunes {
		for x, r := range runes {
			if r == ' ' {
				continue
			}
			grid[y][x] = cell{r: r, style: logoFaceStyle}
		}
	}

	lines := make([]string, height)
	for y, row := range grid {
		var b strings.Builder
		for _, c := range row {
			if c.r == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteString(c.style.Render(string(c.r)))
		}
		lines[y] = b.String()
	}
	return logoContainerStyle.Render(strings.Join(lines, "\n"))
}
