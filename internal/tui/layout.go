package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/nsharda/inklet/internal/backend"
	"github.com/nsharda/inklet/internal/viewer"
)

type pageLayout struct {
	windowWidth    int
	windowHeight   int
	viewportWidth  int
	viewportHeight int
	composerHeight int
}

func newPageLayout() pageLayout {
	return pageLayout{
		viewportWidth:  80,
		viewportHeight: 20,
		composerHeight: 1,
	}
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.viewportWidth = innerWidth
	l.composerHeight = 1
	const chrome = 12
	usable := height - chrome - l.composerHeight
	if usable < 8 {
		usable = 8
	}
	l.viewportHeight = usable
}

type contentBuilder struct {
	builder strings.Builder
	lines   int
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
	cb.lines += strings.Count(s, "\n")
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
	if r == '\n' {
		cb.lines++
	}
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

func (cb *contentBuilder) Line() int {
	return cb.lines
}

func (m *model) refreshViewportIfDirty() {
	if !m.viewportDirty {
		return
	}
	m.viewport.SetContent(m.buildTabContent())
	m.viewportDirty = false
}

func (m *model) buildTabContent() string {
	switch m.activeTab {
	case tabViewer:
		return m.buildViewerContent()
	case tabInsights:
		return m.buildInsightsContent()
	case tabRelated:
		return m.buildRelatedContent()
	case tabChat:
		return m.buildChatContent()
	case tabLibrary:
		return m.buildLibraryContent()
	default:
		return ""
	}
}

func (m *model) buildViewerContent() string {
	cb := &contentBuilder{}
	if m.currentDoc == "" {
		cb.WriteString(helperStyle.Render("No document open. Press u to upload PDFs, or pick one from the Library tab."))
		cb.WriteRune('\n')
		return cb.String()
	}
	state := m.viewerState
	switch state.Phase {
	case viewer.PhaseLoading:
		cb.WriteString(helperStyle.Render(fmt.Sprintf("%s Loading %s via %s…", m.spinner.View(), m.currentDoc, m.strategy)))
		cb.WriteRune('\n')
	case viewer.PhaseError:
		cb.WriteString(errorStyle.Render(fmt.Sprintf("Viewer error: %v", state.Err)))
		cb.WriteRune('\n')
		cb.WriteString(helperStyle.Render("Press 1 (browser), 2 (canvas), 3 (frame), or 4 (embed) to retry with another strategy."))
		cb.WriteRune('\n')
	case viewer.PhaseReady:
		m.writeReadyViewer(cb, state)
	default:
		if m.viewerLoading {
			cb.WriteString(helperStyle.Render(fmt.Sprintf("%s Loading %s…", m.spinner.View(), m.currentDoc)))
			cb.WriteRune('\n')
		} else {
			cb.WriteString(helperStyle.Render("Viewer idle."))
			cb.WriteRune('\n')
		}
	}
	return cb.String()
}

func (m *model) writeReadyViewer(cb *contentBuilder, state viewer.State) {
	switch state.Strategy {
	case viewer.StrategyCanvas:
		if state.Canvas != nil {
			header := fmt.Sprintf("Page %d/%d  ·  zoom %.1fx", state.CurrentPage, state.TotalPages, state.Scale)
			cb.WriteString(sectionHeaderStyle.Render(header))
			cb.WriteRune('\n')
			cb.WriteRune('\n')
			cb.WriteString(state.Canvas.RenderPage(state.CurrentPage, state.Scale))
			cb.WriteRune('\n')
		}
	case viewer.StrategyBrowser:
		cb.WriteString(helperStyle.Render("Document opened in the system viewer."))
		cb.WriteRune('\n')
		cb.WriteString(helperStyle.Render("URL: " + state.URL))
		cb.WriteRune('\n')
	case viewer.StrategyFrame:
		cb.WriteString(frameBoxAround(strings.Join([]string{
			"Framed document",
			state.URL,
			fmt.Sprintf("page %d  ·  zoom %.1fx", state.CurrentPage, state.Scale),
		}, "\n")))
		cb.WriteRune('\n')
	case viewer.StrategyEmbed:
		cb.WriteString(helperStyle.Render("Embed session active."))
		cb.WriteRune('\n')
		if state.Embed != nil {
			cb.WriteString(helperStyle.Render(fmt.Sprintf("Container %s  ·  page %d  ·  zoom %.1fx", state.Embed.Container.ID, state.CurrentPage, state.Scale)))
			cb.WriteRune('\n')
		}
	}
	if state.Note != "" {
		cb.WriteRune('\n')
		cb.WriteString(helperStyle.Render(state.Note))
		cb.WriteRune('\n')
	}
}

func frameBoxAround(body string) string {
	return legendBoxStyle.Render(body)
}

func (m *model) buildInsightsContent() string {
	cb := &contentBuilder{}
	wrap := m.wrapWidth(4)
	if m.selectionText == "" {
		cb.WriteString(helperStyle.Render("Press s and paste a passage to look up insights."))
		cb.WriteRune('\n')
		return cb.String()
	}
	cb.WriteString(sectionHeaderStyle.Render("Selected Passage"))
	cb.WriteRune('\n')
	cb.WriteString(selectionQuoteStyle.Render(wordwrap.String(m.selectionText, wrap)))
	cb.WriteRune('\n')
	cb.WriteRune('\n')
	cb.WriteString(sectionHeaderStyle.Render("Insights"))
	cb.WriteRune('\n')
	switch {
	case m.insightsLoading:
		cb.WriteString(helperStyle.Render(fmt.Sprintf("%s Looking up insights…", m.spinner.View())))
		cb.WriteRune('\n')
	case len(m.insights) == 0:
		cb.WriteString(helperStyle.Render("No insights for this passage. Longer selections work better."))
		cb.WriteRune('\n')
	default:
		for _, insight := range m.insights {
			cb.WriteString(" • ")
			cb.WriteString(insightTypeStyle.Render(insight.Type))
			cb.WriteString(": ")
			cb.WriteString(wordwrap.String(insight.Text, wrap))
			cb.WriteRune('\n')
		}
	}
	if m.audioURL != "" {
		cb.WriteRune('\n')
		cb.WriteString(sectionHeaderStyle.Render("Audio Overview"))
		cb.WriteRune('\n')
		cb.WriteString(helperStyle.Render(m.audioURL))
		cb.WriteRune('\n')
	} else if m.audioLoading {
		cb.WriteRune('\n')
		cb.WriteString(helperStyle.Render(fmt.Sprintf("%s Generating audio overview…", m.spinner.View())))
		cb.WriteRune('\n')
	}
	return cb.String()
}

func (m *model) buildRelatedContent() string {
	cb := &contentBuilder{}
	wrap := m.wrapWidth(6)
	cb.WriteString(sectionHeaderStyle.Render("Related Sections"))
	cb.WriteRune('\n')
	switch {
	case m.relatedLoading:
		cb.WriteString(helperStyle.Render(fmt.Sprintf("%s Finding related sections…", m.spinner.View())))
		cb.WriteRune('\n')
	case len(m.related) == 0:
		cb.WriteString(helperStyle.Render("No related sections yet. Upload more documents or select a passage."))
		cb.WriteRune('\n')
	default:
		for idx, entry := range m.related {
			title := entry.SectionTitle
			if title == "" {
				title = "(untitled section)"
			}
			line := fmt.Sprintf("%s — %s  p.%d", entry.SourceDocument, title, entry.Page)
			score := scoreStyle.Render(fmt.Sprintf("  %.0f%%", entry.SimilarityScore*100))
			if idx == m.relatedCursor {
				cb.WriteString(currentLineStyle.Render("▸ " + line))
			} else {
				cb.WriteString("  " + line)
			}
			cb.WriteString(score)
			cb.WriteRune('\n')
			if entry.Snippet != "" {
				cb.WriteString(indentMultiline(wordwrap.String(entry.Snippet, wrap), "    "))
				cb.WriteRune('\n')
			}
			if entry.Explanation != "" {
				cb.WriteString(indentMultiline(helperStyle.Render(wordwrap.String(entry.Explanation, wrap)), "    "))
				cb.WriteRune('\n')
			}
			cb.WriteRune('\n')
		}
		cb.WriteString(helperStyle.Render("Enter jumps to the highlighted section."))
		cb.WriteRune('\n')
	}
	return cb.String()
}

func (m *model) buildChatContent() string {
	cb := &contentBuilder{}
	wrap := m.wrapWidth(4)
	if len(m.chatHistory) == 0 {
		cb.WriteString(sectionHeaderStyle.Render("Ask about your documents"))
		cb.WriteRune('\n')
		cb.WriteString(helperStyle.Render("Press Enter to type a question, or pick a starter:"))
		cb.WriteRune('\n')
		for idx, question := range suggestedQuestions {
			cb.WriteString(fmt.Sprintf("  %d. %s", idx+1, question))
			cb.WriteRune('\n')
		}
		return cb.String()
	}
	for _, message := range m.chatHistory {
		switch {
		case message.Role == backend.RoleUser:
			cb.WriteString(chatUserLabelStyle.Render("You"))
		case message.IsError:
			cb.WriteString(errorStyle.Render("Error"))
		default:
			cb.WriteString(chatEngineLabelStyle.Render("Engine"))
			if message.Provider != "" {
				cb.WriteString(" ")
				cb.WriteString(providerStyle.Render("(" + message.Provider + ")"))
			}
		}
		cb.WriteRune('\n')
		body := wordwrap.String(message.Content, wrap)
		if message.IsError {
			body = errorStyle.Render(body)
		}
		cb.WriteString(indentMultiline(body, "  "))
		cb.WriteRune('\n')
		cb.WriteRune('\n')
	}
	if m.chatLoading {
		cb.WriteString(helperStyle.Render(fmt.Sprintf("%s Thinking…", m.spinner.View())))
		cb.WriteRune('\n')
	}
	return cb.String()
}

func (m *model) buildLibraryContent() string {
	cb := &contentBuilder{}
	cb.WriteString(sectionHeaderStyle.Render(fmt.Sprintf("Library — %d document(s), %d section(s)", m.config.Store.Len(), m.config.Store.TotalSections())))
	cb.WriteRune('\n')
	if m.searchQuery != "" {
		cb.WriteString(helperStyle.Render(fmt.Sprintf("Filter: %q  ·  sort: %s  (/ to change, t to re-sort)", m.searchQuery, m.sortOrder)))
	} else {
		cb.WriteString(helperStyle.Render(fmt.Sprintf("Sort: %s  ·  / filters, t re-sorts, Enter opens", m.sortOrder)))
	}
	cb.WriteRune('\n')
	cb.WriteRune('\n')
	rows := m.libraryRows()
	if len(rows) == 0 {
		cb.WriteString(helperStyle.Render("No sections match. Clear the filter with / and Enter."))
		cb.WriteRune('\n')
		return cb.String()
	}
	for idx, row := range rows {
		title := row.Title
		if title == "" {
			title = "(untitled section)"
		}
		line := fmt.Sprintf("%s  ·  %s  p.%d", row.Document, title, row.Page)
		if idx == m.libraryCursor {
			cb.WriteString(currentLineStyle.Render("▸ " + line))
		} else {
			cb.WriteString("  " + line)
		}
		cb.WriteRune('\n')
	}
	return cb.String()
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func previewText(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
