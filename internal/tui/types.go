package tui

type stage int

const (
	stageWelcome stage = iota
	stageUploading
	stageReading
)

type tab int

const (
	tabViewer tab = iota
	tabInsights
	tabRelated
	tabChat
	tabLibrary
)

var tabSequence = []tab{tabViewer, tabInsights, tabRelated, tabChat, tabLibrary}

func (t tab) label() string {
	switch t {
	case tabViewer:
		return "Viewer"
	case tabInsights:
		return "Insights"
	case tabRelated:
		return "Related"
	case tabChat:
		return "Chat"
	case tabLibrary:
		return "Library"
	default:
		return "?"
	}
}

type composerMode int

const (
	composerModeIdle composerMode = iota
	composerModeUpload
	composerModePage
	composerModeSelection
	composerModeChat
	composerModeSearch
)

const heroTagline = "Read, select, and connect your PDFs with Inklet."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
)

// insightTriggerLen is the selection length a passage must exceed before
// an insight lookup fires; shorter selections clear the pane instead.
const insightTriggerLen = 10

const (
	composerUploadPlaceholder    = "Paths to PDF files, space separated…"
	composerPagePlaceholder      = "Page number…"
	composerSelectionPlaceholder = "Paste the passage you selected…"
	composerChatPlaceholder      = "Ask about the selected text…"
	composerSearchPlaceholder    = "Search sections across documents…"
)

var suggestedQuestions = []string{
	"What does the selected passage mean?",
	"How does this relate to the rest of the document?",
	"Summarize the selected text in two sentences.",
	"What should I read next to understand this better?",
}
