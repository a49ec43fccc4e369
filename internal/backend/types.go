package backend

// UploadedDocument describes one processed PDF as reported by the engine.
// Filename is the natural key within a session; the engine never renames.
type UploadedDocument struct {
	Filename      string    `json:"filename"`
	SectionsCount int       `json:"sections_count"`
	Status        string    `json:"status"`
	Sections      []Section `json:"sections,omitempty"`
}

// Section is one extracted subdivision of a document. Page is 0-indexed.
type Section struct {
	Title   string `json:"title"`
	Page    int    `json:"page"`
	Snippet string `json:"snippet,omitempty"`
}

// RelatedSection points at a section the engine judged similar to the
// current document. SourceDocument may name a document the client never
// uploaded in this session; that is legitimate and never validated here.
type RelatedSection struct {
	SourceDocument  string  `json:"source_document"`
	SectionTitle    string  `json:"section_title"`
	Page            int     `json:"page"`
	SimilarityScore float64 `json:"similarity_score"`
	Snippet         string  `json:"snippet,omitempty"`
	Explanation     string  `json:"relevance_explanation,omitempty"`
}

// Insight is one AI-generated observation about a text selection.
type Insight struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	InsightKeyTakeaway = "key_takeaway"
	InsightExample     = "example"
	InsightConnection  = "connection"
	InsightSummary     = "summary"
	InsightQuestion    = "question"
	InsightError       = "error"
)

// ChatMessage is one turn of the assistant conversation. The history is
// append-only for the lifetime of a session.
type ChatMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
	Provider  string `json:"provider,omitempty"`
	IsError   bool   `json:"-"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatReply carries the assistant text plus which provider produced it.
type ChatReply struct {
	Content  string
	Provider string
}

// RuntimeConfig is the engine's runtime-issued client configuration,
// fetched from /config rather than baked in at build time.
type RuntimeConfig struct {
	EmbedAPIKey string `json:"adobe_embed_api_key"`
	LLMProvider string `json:"llm_provider"`
	TTSProvider string `json:"tts_provider"`
}

// UploadFile is a single file handed to Upload.
type UploadFile struct {
	Name string
	Data []byte
}

// Health is the engine liveness payload.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
