package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/nsharda/inklet/internal/backend"
	"github.com/nsharda/inklet/internal/viewer"
)

func TestUploadRejectsNonPDFOnlySubmission(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.submitUpload("notes.txt chart.png", nil)
	if cmd != nil {
		t.Fatalf("non-PDF submission should not start a job, got %T", cmd)
	}
	if m.stage != stageWelcome {
		t.Fatalf("stage = %v, want welcome", m.stage)
	}
	if !strings.Contains(m.infoMessage, "PDF") {
		t.Errorf("info message should mention PDFs: %q", m.infoMessage)
	}
}

func TestUploadKeepsOnlyPDFPaths(t *testing.T) {
	m := newTestModel(t)
	// No engine configured, so the mixed submission is refused before a
	// job starts, but only after the PDF filter ran.
	_, _ = m.submitUpload("a.pdf b.txt c.PDF", nil)
	if m.infoMessage != "No engine configured." {
		t.Fatalf("expected filter to pass and engine check to fail, got %q", m.infoMessage)
	}
}

func TestUploadResultSelectsFirstDocument(t *testing.T) {
	m := newTestModel(t)
	m.stage = stageUploading
	m.uploading = true

	docs := []backend.UploadedDocument{
		{Filename: "alpha.pdf", SectionsCount: 3, Status: "success"},
		{Filename: "beta.pdf", SectionsCount: 1, Status: "success"},
	}
	_, _ = m.handleUploadResult(uploadResultMsg{docs: docs, skipped: 1})

	if m.stage != stageReading {
		t.Fatalf("stage = %v, want reading", m.stage)
	}
	if m.activeTab != tabViewer {
		t.Fatalf("activeTab = %v, want viewer", m.activeTab)
	}
	if m.currentDoc != "alpha.pdf" {
		t.Fatalf("currentDoc = %q", m.currentDoc)
	}
	if m.config.Store.Len() != 2 {
		t.Errorf("store has %d documents, want 2", m.config.Store.Len())
	}
	if !strings.Contains(m.infoMessage, "skipped 1") {
		t.Errorf("info message should report skipped files: %q", m.infoMessage)
	}
}

func TestUploadFailureReturnsToWelcome(t *testing.T) {
	m := newTestModel(t)
	m.stage = stageUploading
	m.uploading = true

	_, _ = m.handleUploadResult(uploadResultMsg{err: errors.New("request entity too large")})
	if m.stage != stageWelcome {
		t.Fatalf("stage = %v, want welcome after failure", m.stage)
	}
	if m.errorMessage == "" {
		t.Error("failure should surface an error message")
	}
	if !m.composer.Focused() {
		t.Error("composer should refocus for a retry")
	}
}

func TestSelectionWhitespaceSuppressed(t *testing.T) {
	m := newTestModel(t)
	m.currentDoc = "alpha.pdf"
	m.selectionText = "previous passage kept intact"

	_, cmd := m.submitSelection("   \n\t ", nil)
	if cmd != nil {
		t.Fatalf("whitespace selection should not start jobs")
	}
	if m.selectionText != "previous passage kept intact" {
		t.Errorf("selection overwritten: %q", m.selectionText)
	}
}

func TestSelectionTrimsBeforeStoring(t *testing.T) {
	m := newTestModel(t)
	m.currentDoc = "alpha.pdf"

	_, _ = m.submitSelection("  hello world  ", nil)
	if m.selectionText != "hello world" {
		t.Fatalf("selectionText = %q, want %q", m.selectionText, "hello world")
	}
}

func TestShortSelectionClearsInsights(t *testing.T) {
	m := newTestModel(t)
	m.currentDoc = "alpha.pdf"
	m.insights = []backend.Insight{{Type: backend.InsightKeyTakeaway, Text: "stale"}}

	// Exactly at the threshold: still too short to trigger a lookup.
	ten := "0123456789"
	_, _ = m.submitSelection(ten, nil)
	if m.insights != nil {
		t.Fatalf("insights not cleared for %d-char selection", len(ten))
	}
	if m.insightsLoading {
		t.Error("no lookup should be running")
	}
}

func TestLongerSelectionTriggersLookup(t *testing.T) {
	m := newTestModel(t)
	m.currentDoc = "alpha.pdf"

	eleven := "01234567890"
	_, _ = m.submitSelection(eleven, nil)
	// Without an engine the job cannot start, but the length gate must
	// have passed.
	if m.infoMessage != "Open a document before selecting text." {
		t.Fatalf("expected engine check to be the stopper, got %q", m.infoMessage)
	}
}

func TestStaleInsightsDropped(t *testing.T) {
	m := newTestModel(t)
	m.currentDoc = "alpha.pdf"
	m.docGen = 2
	m.selectionText = "the current passage"

	_, _ = m.handleInsightsResult(insightsResultMsg{
		doc:       "alpha.pdf",
		gen:       1,
		selection: "an old passage",
		insights:  []backend.Insight{{Type: backend.InsightSummary, Text: "stale"}},
	})
	if m.insights != nil {
		t.Fatal("stale-generation insights should be dropped")
	}
}

func TestInsightsForSupersededSelectionDropped(t *testing.T) {
	m := newTestModel(t)
	m.currentDoc = "alpha.pdf"
	m.docGen = 1
	m.selectionText = "the newer passage"

	_, _ = m.handleInsightsResult(insightsResultMsg{
		doc:       "alpha.pdf",
		gen:       1,
		selection: "the older passage",
		insights:  []backend.Insight{{Type: backend.InsightSummary, Text: "stale"}},
	})
	if m.insights != nil {
		t.Fatal("insights for a replaced selection should be dropped")
	}
}

func TestRelatedJumpLandsOnePageAfterSection(t *testing.T) {
	m := newTestModel(t)
	m.stage = stageReading
	m.currentDoc = "alpha.pdf"
	m.viewerState = viewer.State{Strategy: viewer.StrategyCanvas, Phase: viewer.PhaseReady, CurrentPage: 1, TotalPages: 12}
	m.related = []backend.RelatedSection{
		{SourceDocument: "alpha.pdf", SectionTitle: "Methods", Page: 4},
	}
	m.relatedCursor = 0

	_, _ = m.jumpToRelated()
	if m.viewerState.CurrentPage != 5 {
		t.Fatalf("CurrentPage = %d, want 5 (section page + 1)", m.viewerState.CurrentPage)
	}
	if m.activeTab != tabViewer {
		t.Errorf("activeTab = %v, want viewer", m.activeTab)
	}
}

func TestRelatedJumpToOtherDocumentDefersPage(t *testing.T) {
	m := newTestModel(t)
	m.stage = stageReading
	m.currentDoc = "alpha.pdf"
	m.docGen = 3
	m.related = []backend.RelatedSection{
		{SourceDocument: "beta.pdf", SectionTitle: "Results", Page: 2},
	}
	m.relatedCursor = 0

	_, _ = m.jumpToRelated()
	if m.currentDoc != "beta.pdf" {
		t.Fatalf("currentDoc = %q, want beta.pdf", m.currentDoc)
	}
	if m.docGen != 4 {
		t.Errorf("docGen = %d, want 4 (bumped by document switch)", m.docGen)
	}
	if m.pendingJumpPage != 3 {
		t.Errorf("pendingJumpPage = %d, want 3", m.pendingJumpPage)
	}
}

func TestViewerResultAppliesPendingJump(t *testing.T) {
	m := newTestModel(t)
	m.currentDoc = "beta.pdf"
	m.docGen = 4
	m.pendingJumpPage = 3

	state := viewer.State{Strategy: viewer.StrategyCanvas, Phase: viewer.PhaseReady, CurrentPage: 1, TotalPages: 9}
	_, _ = m.handleViewerResult(viewerResultMsg{doc: "beta.pdf", gen: 4, state: state})
	if m.viewerState.CurrentPage != 3 {
		t.Fatalf("CurrentPage = %d, want pending jump applied", m.viewerState.CurrentPage)
	}
	if m.pendingJumpPage != 0 {
		t.Error("pending jump should clear once applied")
	}
}

func TestStaleViewerResultDropped(t *testing.T) {
	m := newTestModel(t)
	m.currentDoc = "beta.pdf"
	m.docGen = 4
	m.strategy = viewer.StrategyEmbed

	state := viewer.State{Strategy: viewer.StrategyCanvas, Phase: viewer.PhaseReady}
	_, _ = m.handleViewerResult(viewerResultMsg{doc: "alpha.pdf", gen: 3, state: state})
	if m.strategy != viewer.StrategyEmbed {
		t.Fatal("stale viewer result should not change the active strategy")
	}
}

func TestChatResultAppendsProviderReply(t *testing.T) {
	m := newTestModel(t)
	m.currentDoc = "alpha.pdf"
	m.chatHistory = []backend.ChatMessage{{Role: backend.RoleUser, Content: "What is this?"}}
	m.chatLoading = true

	_, _ = m.handleChatResult(chatResultMsg{doc: "alpha.pdf", reply: backend.ChatReply{Content: "A paper.", Provider: "groq"}})
	if len(m.chatHistory) != 2 {
		t.Fatalf("history has %d entries, want 2", len(m.chatHistory))
	}
	last := m.chatHistory[1]
	if last.Role != backend.RoleAssistant || last.Content != "A paper." || last.Provider != "groq" {
		t.Fatalf("assistant entry = %+v", last)
	}
	if m.chatLoading {
		t.Error("chat loading flag should clear")
	}
}

func TestChatFailureBecomesErrorBubble(t *testing.T) {
	m := newTestModel(t)
	m.currentDoc = "alpha.pdf"
	m.chatLoading = true

	_, _ = m.handleChatResult(chatResultMsg{doc: "alpha.pdf", err: errors.New("backend is not running at http://localhost:8000")})
	if len(m.chatHistory) != 1 {
		t.Fatalf("history has %d entries, want 1 error bubble", len(m.chatHistory))
	}
	if !m.chatHistory[0].IsError {
		t.Error("failure should be marked as an error bubble")
	}
}

func TestRuntimeConfigUpgradesDefaultStrategy(t *testing.T) {
	m := newTestModel(t)
	if m.strategy != viewer.StrategyBrowser {
		t.Fatalf("initial strategy = %v", m.strategy)
	}
	_, _ = m.handleRuntimeConfig(configResultMsg{cfg: backend.RuntimeConfig{EmbedAPIKey: "client-id"}})
	if m.strategy != viewer.StrategyEmbed {
		t.Fatalf("strategy = %v, want embed once a credential exists", m.strategy)
	}
}

func TestPinnedStrategySurvivesRuntimeConfig(t *testing.T) {
	teaModel := New(Config{Strategy: viewer.StrategyCanvas, StrategyPinned: true})
	m := teaModel.(*model)
	_, _ = m.handleRuntimeConfig(configResultMsg{cfg: backend.RuntimeConfig{EmbedAPIKey: "client-id"}})
	if m.strategy != viewer.StrategyCanvas {
		t.Fatalf("strategy = %v, want pinned canvas", m.strategy)
	}
}

func TestIndexedDocumentsPopulateLibrary(t *testing.T) {
	m := newTestModel(t)
	_, _ = m.handleDocuments(documentsResultMsg{docs: []backend.UploadedDocument{
		{Filename: "alpha.pdf", SectionsCount: 3},
		{Filename: "beta.pdf", SectionsCount: 2},
	}})
	if m.config.Store.Len() != 2 {
		t.Fatalf("store has %d documents, want 2", m.config.Store.Len())
	}
}

func TestTabCycleWraps(t *testing.T) {
	m := newTestModel(t)
	m.activeTab = tabLibrary
	m.cycleTab(1)
	if m.activeTab != tabViewer {
		t.Fatalf("activeTab = %v, want wraparound to viewer", m.activeTab)
	}
	m.cycleTab(-1)
	if m.activeTab != tabLibrary {
		t.Fatalf("activeTab = %v, want library", m.activeTab)
	}
}

func TestCheatsheetToggle(t *testing.T) {
	m := newTestModel(t)
	m.stage = stageReading
	m.currentDoc = "alpha.pdf"
	m.config.Store.Add([]backend.UploadedDocument{{Filename: "alpha.pdf"}})

	view := m.viewReading()
	if strings.Contains(view, "Keyboard Cheatsheet") {
		t.Fatal("cheatsheet should be hidden by default")
	}
	m.helpVisible = true
	view = m.viewReading()
	if !strings.Contains(view, "Keyboard Cheatsheet") {
		t.Fatal("cheatsheet did not appear after toggling help")
	}
}

func TestSuggestedQuestionsShownForEmptyChat(t *testing.T) {
	m := newTestModel(t)
	content := m.buildChatContent()
	for _, question := range suggestedQuestions {
		if !strings.Contains(content, question) {
			t.Fatalf("starter question missing from empty chat: %q", question)
		}
	}
}
