package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nsharda/inklet/internal/backend"
	"github.com/nsharda/inklet/internal/library"
	"github.com/nsharda/inklet/internal/selection"
	"github.com/nsharda/inklet/internal/viewer"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Backend  *backend.Client
	Viewer   *viewer.Bootstrap
	Pane     *viewer.PaneHost
	Store    *library.Store
	Strategy viewer.Strategy
	// StrategyPinned marks an explicit strategy choice; the runtime
	// config's embed credential will not override it.
	StrategyPinned bool
	Logger         *zap.Logger
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.Store == nil {
		config.Store = library.NewStore(library.DuplicateAppend)
	}
	if config.Strategy == "" {
		config.Strategy = viewer.StrategyBrowser
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	composer := textinput.New()
	composer.Placeholder = composerUploadPlaceholder
	composer.CharLimit = 800
	composer.Width = 70
	composer.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	return &model{
		config:        config,
		stage:         stageWelcome,
		activeTab:     tabViewer,
		composer:      composer,
		composerMode:  composerModeUpload,
		spinner:       spin,
		viewport:      vp,
		jobs:          newJobBus(config.Logger),
		runningJobs:   map[string]jobSnapshot{},
		listener:      selection.NewListener(nil),
		strategy:      config.Strategy,
		sortOrder:     library.SortRelevance,
		layout:        newPageLayout(),
		viewportDirty: true,
		infoMessage:   "Upload a PDF to begin reading.",
	}
}

type model struct {
	config Config
	stage  stage

	activeTab    tab
	composer     textinput.Model
	composerMode composerMode
	spinner      spinner.Model
	viewport     viewport.Model
	layout       pageLayout

	jobs        *jobBus
	runningJobs map[string]jobSnapshot

	listener *selection.Listener

	currentDoc string
	// docGen increments every time the current document changes; async
	// results stamped with an older generation are dropped.
	docGen          int
	pendingJumpPage int

	strategy      viewer.Strategy
	viewerState   viewer.State
	viewerLoading bool

	sectionsLoading bool
	relatedLoading  bool
	insightsLoading bool
	audioLoading    bool
	chatLoading     bool
	uploading       bool

	selectionText string
	insights      []backend.Insight
	related       []backend.RelatedSection
	relatedCursor int
	audioURL      string

	chatHistory []backend.ChatMessage

	searchQuery   string
	sortOrder     library.SortOrder
	libraryCursor int

	runtimeCfg   backend.RuntimeConfig
	healthLine   string
	infoMessage  string
	errorMessage string
	helpVisible  bool

	viewportDirty bool
}

type healthResultMsg struct {
	health backend.Health
	err    error
}

type configResultMsg struct {
	cfg backend.RuntimeConfig
	err error
}

type documentsResultMsg struct {
	docs []backend.UploadedDocument
	err  error
}

type uploadResultMsg struct {
	docs    []backend.UploadedDocument
	skipped int
	err     error
}

type sectionsResultMsg struct {
	doc      string
	gen      int
	sections []backend.Section
	err      error
}

type relatedResultMsg struct {
	doc     string
	gen     int
	related []backend.RelatedSection
	err     error
}

type insightsResultMsg struct {
	doc       string
	gen       int
	selection string
	insights  []backend.Insight
	err       error
}

type audioResultMsg struct {
	doc string
	gen int
	url string
	err error
}

type chatResultMsg struct {
	doc   string
	reply backend.ChatReply
	err   error
}

type viewerResultMsg struct {
	doc   string
	gen   int
	state viewer.State
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.config.Backend != nil {
		cmds = append(cmds,
			m.jobs.Start(jobKindHealth, healthJob(m.config.Backend)),
			m.jobs.Start(jobKindConfig, runtimeConfigJob(m.config.Backend)),
			m.jobs.Start(jobKindDocuments, listDocumentsJob(m.config.Backend)),
		)
	}
	return tea.Batch(cmds...)
}

func (m *model) anyLoading() bool {
	return m.uploading || m.viewerLoading || m.sectionsLoading || m.relatedLoading ||
		m.insightsLoading || m.audioLoading || m.chatLoading
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.anyLoading() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			return m.handleEsc()
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.stage == stageReading {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil

	case jobSignalMsg:
		m.runningJobs[msg.Snapshot.ID] = msg.Snapshot
		return m, nil

	case jobResultEnvelope:
		delete(m.runningJobs, msg.Snapshot.ID)
		if msg.Payload != nil {
			return m.Update(msg.Payload)
		}
		return m, nil

	case healthResultMsg:
		if msg.err != nil {
			m.healthLine = fmt.Sprintf("Engine offline: %v", msg.err)
		} else {
			m.healthLine = fmt.Sprintf("Engine %s (%s)", msg.health.Status, msg.health.Service)
		}
		return m, nil

	case configResultMsg:
		return m.handleRuntimeConfig(msg)

	case documentsResultMsg:
		return m.handleDocuments(msg)

	case uploadResultMsg:
		return m.handleUploadResult(msg)

	case sectionsResultMsg:
		return m.handleSectionsResult(msg)

	case relatedResultMsg:
		return m.handleRelatedResult(msg)

	case insightsResultMsg:
		return m.handleInsightsResult(msg)

	case audioResultMsg:
		return m.handleAudioResult(msg)

	case chatResultMsg:
		return m.handleChatResult(msg)

	case viewerResultMsg:
		return m.handleViewerResult(msg)

	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.viewport.Width = m.layout.viewportWidth
		m.viewport.Height = m.layout.viewportHeight
		if m.config.Pane != nil {
			m.config.Pane.Register("inklet-viewer-pane")
		}
		m.markViewportDirty()
		return m, nil
	}
	return m, nil
}

func (m *model) handleRuntimeConfig(msg configResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		// The engine works without a runtime config; stay on the
		// current strategy.
		return m, nil
	}
	m.runtimeCfg = msg.cfg
	if msg.cfg.EmbedAPIKey != "" && !m.config.StrategyPinned && m.strategy == viewer.StrategyBrowser {
		m.strategy = viewer.StrategyEmbed
		m.infoMessage = "Embed credential available; embed strategy enabled."
	}
	return m, nil
}

func (m *model) handleDocuments(msg documentsResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil || len(msg.docs) == 0 {
		return m, nil
	}
	m.config.Store.Add(msg.docs)
	if m.stage == stageWelcome {
		m.infoMessage = fmt.Sprintf("%d document(s) already indexed. Press Tab to browse the library, or upload more.", m.config.Store.Len())
	}
	m.markViewportDirty()
	return m, nil
}

func (m *model) handleUploadResult(msg uploadResultMsg) (tea.Model, tea.Cmd) {
	m.uploading = false
	if msg.err != nil {
		if m.stage == stageUploading {
			m.stage = stageWelcome
		}
		m.errorMessage = msg.err.Error()
		m.infoMessage = "Upload failed. Fix the problem and press u to retry."
		m.focusComposer(composerModeUpload)
		return m, nil
	}
	appended, replaced := m.config.Store.Add(msg.docs)
	m.errorMessage = ""
	summary := fmt.Sprintf("Uploaded %d document(s)", appended+replaced)
	if msg.skipped > 0 {
		summary += fmt.Sprintf(", skipped %d non-PDF file(s)", msg.skipped)
	}
	m.infoMessage = summary + "."
	if len(msg.docs) == 0 {
		m.stage = stageReading
		m.blurComposer()
		return m, nil
	}
	m.stage = stageReading
	m.activeTab = tabViewer
	m.blurComposer()
	return m, m.selectDocument(msg.docs[0].Filename)
}

// selectDocument makes a document current, invalidating every in-flight
// result for the previous one, and kicks off the reading pipeline.
func (m *model) selectDocument(name string) tea.Cmd {
	m.currentDoc = name
	m.docGen++
	m.selectionText = ""
	m.listener = selection.NewListener(nil)
	m.insights = nil
	m.related = nil
	m.relatedCursor = 0
	m.audioURL = ""
	m.viewerState = viewer.State{}
	m.markViewportDirty()

	if m.config.Backend == nil {
		return nil
	}
	cmds := []tea.Cmd{m.spinner.Tick}
	doc, ok := m.config.Store.Get(name)
	if !ok || len(doc.Sections) == 0 {
		m.sectionsLoading = true
		cmds = append(cmds, m.jobs.Start(jobKindSections, sectionsJob(m.config.Backend, name, m.docGen)))
	}
	m.relatedLoading = true
	cmds = append(cmds, m.jobs.Start(jobKindRelated, relatedForDocumentJob(m.config.Backend, name, m.docGen)))
	if m.config.Viewer != nil {
		m.viewerLoading = true
		docURL := m.config.Backend.FileURL(name)
		cmds = append(cmds, m.jobs.Start(jobKindViewer, viewerLoadJob(m.config.Viewer, m.strategy, name, docURL, m.docGen)))
	}
	return tea.Batch(cmds...)
}

func (m *model) handleSectionsResult(msg sectionsResultMsg) (tea.Model, tea.Cmd) {
	if msg.doc != m.currentDoc || msg.gen != m.docGen {
		return m, nil
	}
	m.sectionsLoading = false
	if msg.err != nil {
		m.errorMessage = msg.err.Error()
		m.markViewportDirty()
		return m, nil
	}
	m.config.Store.SetSections(msg.doc, msg.sections)
	m.markViewportDirty()
	return m, nil
}

func (m *model) handleRelatedResult(msg relatedResultMsg) (tea.Model, tea.Cmd) {
	if msg.doc != m.currentDoc || msg.gen != m.docGen {
		return m, nil
	}
	m.relatedLoading = false
	if msg.err != nil {
		m.errorMessage = msg.err.Error()
		m.markViewportDirty()
		return m, nil
	}
	m.related = msg.related
	m.relatedCursor = 0
	m.errorMessage = ""
	if len(msg.related) == 0 {
		m.infoMessage = "No related sections found yet."
	}
	m.markViewportDirty()
	return m, nil
}

func (m *model) handleInsightsResult(msg insightsResultMsg) (tea.Model, tea.Cmd) {
	if msg.doc != m.currentDoc || msg.gen != m.docGen {
		return m, nil
	}
	if msg.selection != m.selectionText {
		// The reader has already selected something else.
		return m, nil
	}
	m.insightsLoading = false
	if msg.err != nil {
		m.errorMessage = msg.err.Error()
		m.infoMessage = "Insight lookup failed. Select the passage again to retry."
		m.markViewportDirty()
		return m, nil
	}
	m.insights = msg.insights
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("%d insight(s) ready. Press o for an audio overview.", len(msg.insights))
	m.markViewportDirty()
	return m, nil
}

func (m *model) handleAudioResult(msg audioResultMsg) (tea.Model, tea.Cmd) {
	if msg.doc != m.currentDoc || msg.gen != m.docGen {
		return m, nil
	}
	m.audioLoading = false
	if msg.err != nil {
		m.errorMessage = msg.err.Error()
		m.infoMessage = "Audio generation failed."
		m.markViewportDirty()
		return m, nil
	}
	m.audioURL = msg.url
	m.errorMessage = ""
	m.infoMessage = "Audio overview ready."
	m.markViewportDirty()
	return m, nil
}

func (m *model) handleChatResult(msg chatResultMsg) (tea.Model, tea.Cmd) {
	if msg.doc != m.currentDoc {
		return m, nil
	}
	m.chatLoading = false
	if msg.err != nil {
		m.chatHistory = append(m.chatHistory, backend.ChatMessage{
			Role:    backend.RoleAssistant,
			Content: msg.err.Error(),
			IsError: true,
		})
		m.markViewportDirty()
		return m, nil
	}
	m.chatHistory = append(m.chatHistory, backend.ChatMessage{
		Role:     backend.RoleAssistant,
		Content:  msg.reply.Content,
		Provider: msg.reply.Provider,
	})
	m.errorMessage = ""
	m.markViewportDirty()
	return m, nil
}

func (m *model) handleViewerResult(msg viewerResultMsg) (tea.Model, tea.Cmd) {
	if msg.doc != m.currentDoc || msg.gen != m.docGen {
		return m, nil
	}
	m.viewerLoading = false
	m.viewerState = msg.state
	m.strategy = msg.state.Strategy
	if msg.state.Phase == viewer.PhaseError {
		m.errorMessage = msg.state.Err.Error()
		m.infoMessage = "Viewer failed to load. Press 1-4 to try another strategy."
	} else {
		m.errorMessage = ""
		if msg.state.Note != "" {
			m.infoMessage = msg.state.Note
		} else {
			m.infoMessage = fmt.Sprintf("Viewing %s via %s.", m.currentDoc, m.strategy)
		}
		if m.pendingJumpPage > 0 {
			m.viewerState.SetPage(m.pendingJumpPage)
			m.pendingJumpPage = 0
		}
	}
	m.markViewportDirty()
	return m, nil
}

func (m *model) handleEsc() (tea.Model, tea.Cmd) {
	if m.composer.Focused() && m.stage != stageWelcome {
		m.blurComposer()
		m.infoMessage = "Entry canceled."
		return m, nil
	}
	if m.helpVisible {
		m.helpVisible = false
		m.markViewportDirty()
		return m, nil
	}
	if m.stage == stageWelcome && strings.TrimSpace(m.composer.Value()) != "" {
		m.composer.SetValue("")
		return m, nil
	}
	return m, tea.Quit
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.composer.Focused() {
		return m.processComposerKey(key)
	}
	switch m.stage {
	case stageWelcome, stageUploading:
		return m, nil
	case stageReading:
		return m.handleReadingKey(key)
	default:
		return m, nil
	}
}

func (m *model) processComposerKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(key)
	if key.Type != tea.KeyEnter {
		return m, cmd
	}
	value := strings.TrimSpace(m.composer.Value())
	m.composer.SetValue("")
	switch m.composerMode {
	case composerModeUpload:
		return m.submitUpload(value, cmd)
	case composerModePage:
		m.blurComposer()
		page, err := strconv.Atoi(value)
		if err != nil {
			m.infoMessage = "Enter a page number."
			return m, cmd
		}
		m.viewerState.SetPage(page)
		m.markViewportDirty()
		return m, cmd
	case composerModeSelection:
		m.blurComposer()
		return m.submitSelection(value, cmd)
	case composerModeChat:
		m.blurComposer()
		return m.submitChat(value, cmd)
	case composerModeSearch:
		m.blurComposer()
		m.searchQuery = value
		m.libraryCursor = 0
		m.markViewportDirty()
		return m, cmd
	default:
		m.blurComposer()
		return m, cmd
	}
}

func (m *model) submitUpload(value string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if value == "" {
		m.infoMessage = "Enter one or more PDF paths."
		return m, cmd
	}
	candidates := strings.Fields(value)
	kept := library.FilterPDFNames(candidates)
	skipped := len(candidates) - len(kept)
	if len(kept) == 0 {
		m.infoMessage = "None of those files are PDFs."
		return m, cmd
	}
	if m.config.Backend == nil {
		m.infoMessage = "No engine configured."
		return m, cmd
	}
	m.stage = stageUploading
	m.uploading = true
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Uploading %d file(s)…", len(kept))
	m.blurComposer()
	return m, tea.Batch(cmd, m.spinner.Tick, m.jobs.Start(jobKindUpload, uploadJob(m.config.Backend, kept, skipped)))
}

func (m *model) submitSelection(value string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	cleaned, ok := m.listener.Observe(value)
	if !ok {
		m.infoMessage = "Selection was empty."
		return m, cmd
	}
	m.selectionText = cleaned
	m.audioURL = ""
	if len(cleaned) <= insightTriggerLen {
		m.insights = nil
		m.insightsLoading = false
		m.infoMessage = "Selection too short for insights; select a longer passage."
		m.markViewportDirty()
		return m, cmd
	}
	if m.config.Backend == nil || m.currentDoc == "" {
		m.infoMessage = "Open a document before selecting text."
		return m, cmd
	}
	m.insightsLoading = true
	m.relatedLoading = true
	m.activeTab = tabInsights
	m.infoMessage = "Looking up insights for the selection…"
	m.markViewportDirty()
	return m, tea.Batch(cmd, m.spinner.Tick,
		m.jobs.Start(jobKindInsights, insightsJob(m.config.Backend, m.currentDoc, m.docGen, cleaned)),
		m.jobs.Start(jobKindRelated, relatedForSelectionJob(m.config.Backend, m.currentDoc, m.docGen, cleaned)),
	)
}

func (m *model) submitChat(value string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if value == "" {
		return m, cmd
	}
	if m.config.Backend == nil {
		m.infoMessage = "No engine configured."
		return m, cmd
	}
	m.chatHistory = append(m.chatHistory, backend.ChatMessage{Role: backend.RoleUser, Content: value})
	m.chatLoading = true
	m.infoMessage = "Waiting for a reply…"
	m.markViewportDirty()
	return m, tea.Batch(cmd, m.spinner.Tick,
		m.jobs.Start(jobKindChat, chatJob(m.config.Backend, m.currentDoc, m.chatHistory, m.selectionText, m.currentDoc)),
	)
}

func (m *model) handleReadingKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	handled := true
	switch key.String() {
	case "tab":
		m.cycleTab(1)
	case "shift+tab":
		m.cycleTab(-1)
	case "u":
		m.focusComposer(composerModeUpload)
		m.infoMessage = "Enter PDF paths and press Enter to upload."
	case "s":
		if m.currentDoc == "" {
			m.infoMessage = "Open a document before selecting text."
			return m, nil
		}
		m.focusComposer(composerModeSelection)
		m.infoMessage = "Paste the passage you selected and press Enter."
	case "o":
		return m.startAudioOverview()
	case "?":
		m.helpVisible = !m.helpVisible
		m.markViewportDirty()
	default:
		handled = false
	}
	if handled {
		m.markViewportDirty()
		return m, nil
	}

	switch m.activeTab {
	case tabViewer:
		return m.handleViewerKey(key)
	case tabInsights:
		return m.handleInsightsKey(key)
	case tabRelated:
		return m.handleRelatedKey(key)
	case tabChat:
		return m.handleChatKey(key)
	case tabLibrary:
		return m.handleLibraryKey(key)
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

func (m *model) handleViewerKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "1", "2", "3", "4":
		idx := int(key.String()[0] - '1')
		return m, m.switchStrategy(viewer.Strategies[idx])
	case "+", "=":
		m.viewerState.ZoomIn()
		m.markViewportDirty()
		return m, nil
	case "-":
		m.viewerState.ZoomOut()
		m.markViewportDirty()
		return m, nil
	case "n", "right":
		m.viewerState.NextPage()
		m.markViewportDirty()
		return m, nil
	case "p", "left":
		m.viewerState.PrevPage()
		m.markViewportDirty()
		return m, nil
	case "g":
		m.focusComposer(composerModePage)
		return m, nil
	case "r":
		if m.currentDoc != "" {
			return m, m.selectDocument(m.currentDoc)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

// switchStrategy reloads the current document under a new strategy. The
// previous strategy's sub-state does not survive the switch.
func (m *model) switchStrategy(next viewer.Strategy) tea.Cmd {
	if m.currentDoc == "" || m.config.Viewer == nil || m.config.Backend == nil {
		m.infoMessage = "Open a document first."
		return nil
	}
	if next == m.strategy && m.viewerState.Phase == viewer.PhaseReady {
		return nil
	}
	m.strategy = next
	m.viewerLoading = true
	m.infoMessage = fmt.Sprintf("Switching to %s strategy…", next)
	m.markViewportDirty()
	prev := m.viewerState
	prev.URL = m.config.Backend.FileURL(m.currentDoc)
	return tea.Batch(m.spinner.Tick,
		m.jobs.Start(jobKindViewer, viewerSwitchJob(m.config.Viewer, prev, next, m.currentDoc, m.docGen)))
}

func (m *model) handleInsightsKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

func (m *model) handleRelatedKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "up", "k":
		if m.relatedCursor > 0 {
			m.relatedCursor--
			m.markViewportDirty()
		}
		return m, nil
	case "down", "j":
		if m.relatedCursor < len(m.related)-1 {
			m.relatedCursor++
			m.markViewportDirty()
		}
		return m, nil
	case "enter":
		return m.jumpToRelated()
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

// jumpToRelated opens the source document of the highlighted match and
// lands one page past the section's stored page, which is where the
// section body starts in the indexed documents.
func (m *model) jumpToRelated() (tea.Model, tea.Cmd) {
	if m.relatedCursor < 0 || m.relatedCursor >= len(m.related) {
		return m, nil
	}
	entry := m.related[m.relatedCursor]
	target := entry.Page + 1
	if entry.SourceDocument == "" || entry.SourceDocument == m.currentDoc {
		m.viewerState.SetPage(target)
		m.activeTab = tabViewer
		m.infoMessage = fmt.Sprintf("Jumped to %q on page %d.", entry.SectionTitle, target)
		m.markViewportDirty()
		return m, nil
	}
	m.pendingJumpPage = target
	m.activeTab = tabViewer
	m.infoMessage = fmt.Sprintf("Opening %s at %q…", entry.SourceDocument, entry.SectionTitle)
	return m, m.selectDocument(entry.SourceDocument)
}

func (m *model) handleChatKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "i", "enter":
		m.focusComposer(composerModeChat)
		return m, nil
	case "1", "2", "3", "4":
		idx := int(key.String()[0] - '1')
		if idx < len(suggestedQuestions) && len(m.chatHistory) == 0 {
			return m.submitChat(suggestedQuestions[idx], nil)
		}
		return m, nil
	case "x":
		m.chatHistory = nil
		m.infoMessage = "Chat cleared."
		m.markViewportDirty()
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

func (m *model) handleLibraryKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "up", "k":
		if m.libraryCursor > 0 {
			m.libraryCursor--
			m.markViewportDirty()
		}
		return m, nil
	case "down", "j":
		if m.libraryCursor < m.librarySpan()-1 {
			m.libraryCursor++
			m.markViewportDirty()
		}
		return m, nil
	case "/":
		m.focusComposer(composerModeSearch)
		return m, nil
	case "t":
		m.cycleSortOrder()
		return m, nil
	case "enter":
		rows := m.libraryRows()
		if m.libraryCursor >= 0 && m.libraryCursor < len(rows) {
			row := rows[m.libraryCursor]
			m.activeTab = tabViewer
			if row.Document != m.currentDoc {
				m.pendingJumpPage = row.Page
				return m, m.selectDocument(row.Document)
			}
			m.viewerState.SetPage(row.Page)
			m.markViewportDirty()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

func (m *model) cycleSortOrder() {
	for i, order := range library.SortOrders {
		if order == m.sortOrder {
			m.sortOrder = library.SortOrders[(i+1)%len(library.SortOrders)]
			break
		}
	}
	m.libraryCursor = 0
	m.infoMessage = fmt.Sprintf("Sections sorted by %s.", m.sortOrder)
	m.markViewportDirty()
}

func (m *model) libraryRows() []library.TaggedSection {
	all := library.Flatten(m.config.Store.Documents())
	return library.Browse(all, library.Query{Search: m.searchQuery, Sort: m.sortOrder})
}

func (m *model) librarySpan() int {
	return len(m.libraryRows())
}

func (m *model) startAudioOverview() (tea.Model, tea.Cmd) {
	if m.selectionText == "" {
		m.infoMessage = "Select a passage first; the overview narrates it with its insights."
		return m, nil
	}
	if m.config.Backend == nil {
		m.infoMessage = "No engine configured."
		return m, nil
	}
	if m.audioLoading {
		m.infoMessage = "Audio generation already running."
		return m, nil
	}
	m.audioLoading = true
	m.infoMessage = "Generating audio overview…"
	outline := audioOutline(m.selectionText, m.insights)
	return m, tea.Batch(m.spinner.Tick,
		m.jobs.Start(jobKindAudio, audioJob(m.config.Backend, m.currentDoc, m.docGen, outline)))
}

func (m *model) cycleTab(delta int) {
	idx := 0
	for i, t := range tabSequence {
		if t == m.activeTab {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(tabSequence)) % len(tabSequence)
	m.activeTab = tabSequence[idx]
	m.viewport.SetYOffset(0)
	m.markViewportDirty()
}

func (m *model) focusComposer(mode composerMode) {
	m.composerMode = mode
	m.composer.SetValue("")
	switch mode {
	case composerModeUpload:
		m.composer.Placeholder = composerUploadPlaceholder
	case composerModePage:
		m.composer.Placeholder = composerPagePlaceholder
	case composerModeSelection:
		m.composer.Placeholder = composerSelectionPlaceholder
	case composerModeChat:
		m.composer.Placeholder = composerChatPlaceholder
	case composerModeSearch:
		m.composer.Placeholder = composerSearchPlaceholder
	}
	m.composer.Focus()
}

func (m *model) blurComposer() {
	m.composer.Blur()
	m.composerMode = composerModeIdle
	m.composer.SetValue("")
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}

func (m *model) jobStatusBadges() []string {
	if len(m.runningJobs) == 0 {
		return nil
	}
	kinds := make([]string, 0, len(m.runningJobs))
	seen := map[jobKind]bool{}
	for _, snapshot := range m.runningJobs {
		if seen[snapshot.Kind] {
			continue
		}
		seen[snapshot.Kind] = true
		kinds = append(kinds, string(snapshot.Kind)+"…")
	}
	sort.Strings(kinds)
	return kinds
}

var (
	sectionHeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	providerStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).Italic(true)
	insightTypeStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("150"))
	scoreStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))
	activeTabStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	inactiveTabStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Padding(0, 1)
	currentLineStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	statusBarStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle             = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(1, 2)
	selectionQuoteStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("223"))
	chatUserLabelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("215"))
	chatEngineLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111"))

	heroAccentColor        = lipgloss.Color("#4f9cff")
	heroInkColor           = lipgloss.Color("#0a1228")
	heroTextColor          = lipgloss.Color("#dceaff")
	heroSecondaryTextColor = lipgloss.Color("#8fb8ff")

	heroTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	heroBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(heroAccentColor).Foreground(heroTextColor).Background(heroInkColor).Padding(1, 2)
	heroSummaryStyle   = lipgloss.NewStyle().PaddingLeft(2)
	taglineStyle       = lipgloss.NewStyle().Foreground(heroSecondaryTextColor).Italic(true)
	logoFaceStyle      = lipgloss.NewStyle().Bold(true).Foreground(heroTextColor).Background(heroInkColor)
	logoShadowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#020611"))
	logoContainerStyle = lipgloss.NewStyle().Padding(0, 1)
	logoArtLines       = []string{
		"██╗  ███╗   ██╗  ██╗  ██╗  ██╗       ███████╗  ████████╗",
		"██║  ████╗  ██║  ██║ ██╔╝  ██║       ██╔════╝  ╚══██╔══╝",
		"██║  ██╔██╗ ██║  █████╔╝   ██║       █████╗       ██║   ",
		"██║  ██║╚██╗██║  ██╔═██╗   ██║       ██╔══╝       ██║   ",
		"██║  ██║ ╚████║  ██║  ██╗  ███████╗  ███████╗     ██║   ",
		"╚═╝  ╚═╝  ╚═══╝  ╚═╝  ╚═╝  ╚══════╝  ╚══════╝     ╚═╝   ",
	}
)
