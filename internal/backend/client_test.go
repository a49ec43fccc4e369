package backend

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(server *httptest.Server) *Client {
	return New(Config{BaseURL: server.URL, HTTPClient: server.Client()})
}

func TestUploadSendsMultipartFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			t.Fatalf("expected multipart form, got %q (%v)", mediaType, err)
		}
		reader, err := r.MultipartReader()
		if err != nil {
			t.Fatalf("no multipart reader, boundary %q: %v", params["boundary"], err)
		}
		var names []string
		for {
			part, err := reader.NextPart()
			if err != nil {
				break
			}
			if part.FormName() != "files" {
				t.Fatalf("unexpected form field: %s", part.FormName())
			}
			names = append(names, part.FileName())
		}
		if len(names) != 2 || names[0] != "a.pdf" || names[1] != "b.pdf" {
			t.Fatalf("unexpected filenames: %v", names)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"ok","files":[{"filename":"a.pdf","sections_count":3,"status":"processed"},{"filename":"b.pdf","sections_count":1,"status":"processed"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	docs, err := client.Upload(context.Background(), []UploadFile{
		{Name: "a.pdf", Data: []byte("%PDF-1.4 a")},
		{Name: "b.pdf", Data: []byte("%PDF-1.4 b")},
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Filename != "a.pdf" || docs[0].SectionsCount != 3 || docs[0].Status != "processed" {
		t.Fatalf("unexpected first document: %+v", docs[0])
	}
}

func TestSectionsDecodesPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sections/report.pdf" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sections":[{"title":"Intro","page":0},{"title":"Methods","page":3,"snippet":"We measure"}]}`))
	}))
	defer server.Close()

	sections, err := newTestClient(server).Sections(context.Background(), "report.pdf")
	if err != nil {
		t.Fatalf("sections failed: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[1].Title != "Methods" || sections[1].Page != 3 || sections[1].Snippet != "We measure" {
		t.Fatalf("unexpected section: %+v", sections[1])
	}
}

func TestRelatedSectionsPassesQueryText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("section_text"); got != "neural ranking" {
			t.Fatalf("missing section_text query, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"related_sections":[{"source_document":"old.pdf","section_title":"Ranking","page":7,"similarity_score":0.81}]}`))
	}))
	defer server.Close()

	related, err := newTestClient(server).RelatedSections(context.Background(), "report.pdf", "neural ranking")
	if err != nil {
		t.Fatalf("related sections failed: %v", err)
	}
	if len(related) != 1 || related[0].SourceDocument != "old.pdf" || related[0].SimilarityScore != 0.81 {
		t.Fatalf("unexpected related sections: %+v", related)
	}
}

func TestRelatedForDocumentEmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"current_document":"report.pdf","related_sections":[]}`))
	}))
	defer server.Close()

	related, err := newTestClient(server).RelatedForDocument(context.Background(), "report.pdf")
	if err != nil {
		t.Fatalf("related-for-document failed: %v", err)
	}
	if len(related) != 0 {
		t.Fatalf("expected empty related list, got %d entries", len(related))
	}
}

func TestInsightsPostsSelectedText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/insights" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var payload struct {
			SelectedText string `json:"selected_text"`
			TopK         int    `json:"top_k"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.SelectedText != "gradient clipping" || payload.TopK != 5 {
			t.Fatalf("unexpected payload: %+v", payload)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"insights":[{"type":"key_takeaway","text":"Focus area: gradients"}]}`))
	}))
	defer server.Close()

	insights, err := newTestClient(server).Insights(context.Background(), "gradient clipping", 5)
	if err != nil {
		t.Fatalf("insights failed: %v", err)
	}
	if len(insights) != 1 || insights[0].Type != InsightKeyTakeaway {
		t.Fatalf("unexpected insights: %+v", insights)
	}
}

func TestGenerateAudioResolvesRelativeURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"audio_url":"/audio/audio_42.mp3"}`))
	}))
	defer server.Close()

	got, err := newTestClient(server).GenerateAudio(context.Background(), "overview text")
	if err != nil {
		t.Fatalf("generate audio failed: %v", err)
	}
	want := server.URL + "/audio/audio_42.mp3"
	if got != want {
		t.Fatalf("audio URL = %q, want %q", got, want)
	}
}

func TestChatReadsCompletionShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Messages        []map[string]string `json:"messages"`
			SelectedText    string              `json:"selected_text"`
			DocumentContext string              `json:"document_context"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if len(payload.Messages) != 1 || payload.Messages[0]["role"] != "user" {
			t.Fatalf("unexpected messages: %v", payload.Messages)
		}
		if payload.SelectedText != "attention weights" {
			t.Fatalf("selected text not forwarded: %q", payload.SelectedText)
		}
		if payload.DocumentContext != "report.pdf" {
			t.Fatalf("document context not forwarded: %q", payload.DocumentContext)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":{"provider":"gemini","choices":[{"message":{"content":"  The weights sum to one. "}}]}}`))
	}))
	defer server.Close()

	reply, err := newTestClient(server).Chat(context.Background(),
		[]ChatMessage{{Role: RoleUser, Content: "Explain attention."}},
		"attention weights", "report.pdf")
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if reply.Content != "The weights sum to one." {
		t.Fatalf("unexpected content: %q", reply.Content)
	}
	if reply.Provider != "gemini" {
		t.Fatalf("unexpected provider: %q", reply.Provider)
	}
}

func TestServerErrorSurfacesDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Upload failed: disk full"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).Sections(context.Background(), "report.pdf")
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	var engineErr *Error
	if !errors.As(err, &engineErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if engineErr.Kind != ErrKindServer {
		t.Fatalf("kind = %v, want ErrKindServer", engineErr.Kind)
	}
	if engineErr.Message != "Upload failed: disk full" {
		t.Fatalf("detail not extracted: %q", engineErr.Message)
	}
}

func TestTooLargeStatusClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	}))
	defer server.Close()

	_, err := newTestClient(server).Upload(context.Background(), []UploadFile{{Name: "big.pdf", Data: []byte("x")}})
	var engineErr *Error
	if !errors.As(err, &engineErr) || engineErr.Kind != ErrKindTooLarge {
		t.Fatalf("expected too-large classification, got %v", err)
	}
	if !strings.Contains(engineErr.Message, "too large") {
		t.Fatalf("message should mention size: %q", engineErr.Message)
	}
}

func TestUnreachableBackendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := server.URL
	server.Close()

	client := New(Config{BaseURL: base})
	_, err := client.ListDocuments(context.Background())
	var engineErr *Error
	if !errors.As(err, &engineErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if engineErr.Kind != ErrKindUnreachable {
		t.Fatalf("kind = %v, want ErrKindUnreachable", engineErr.Kind)
	}
	if !strings.Contains(engineErr.Message, "backend is not running") {
		t.Fatalf("message should point at the stopped engine: %q", engineErr.Message)
	}
}

func TestFileURLEscapesFilename(t *testing.T) {
	t.Parallel()
	client := New(Config{BaseURL: "http://localhost:8000"})
	got := client.FileURL("annual report.pdf")
	want := "http://localhost:8000/files/annual%20report.pdf"
	if got != want {
		t.Fatalf("FileURL = %q, want %q", got, want)
	}
}

func TestExtractDetail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"fastapi detail", `{"detail":"Document not found"}`, "Document not found"},
		{"plain text", "bad gateway", "bad gateway"},
		{"foreign json", `{"error":"nope"}`, ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := extractDetail([]byte(tt.body)); got != tt.want {
				t.Fatalf("extractDetail(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestUploadThenSectionsThenRelatedFlow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/upload":
			_, _ = w.Write([]byte(`{"message":"ok","files":[{"filename":"solo.pdf","sections_count":2,"status":"processed"}]}`))
		case r.URL.Path == "/sections/solo.pdf":
			_, _ = w.Write([]byte(`{"sections":[{"title":"Intro","page":1,"snippet":"In the beginning"},{"title":"Methods","page":3,"snippet":"We measure"}]}`))
		case r.URL.Path == "/related-for-document/solo.pdf":
			// Only one document is indexed, so nothing can relate to it.
			_, _ = w.Write([]byte(`{"current_document":"solo.pdf","related_sections":[]}`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(server)
	ctx := context.Background()

	docs, err := client.Upload(ctx, []UploadFile{{Name: "solo.pdf", Data: []byte("%PDF-1.4")}})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(docs) != 1 || docs[0].SectionsCount != 2 {
		t.Fatalf("unexpected upload result: %+v", docs)
	}

	sections, err := client.Sections(ctx, docs[0].Filename)
	if err != nil {
		t.Fatalf("sections: %v", err)
	}
	if len(sections) != 2 || sections[0].Title != "Intro" {
		t.Fatalf("unexpected sections: %+v", sections)
	}

	related, err := client.RelatedForDocument(ctx, docs[0].Filename)
	if err != nil {
		t.Fatalf("related: %v", err)
	}
	if len(related) != 0 {
		t.Fatalf("expected no related sections for a lone document, got %+v", related)
	}
}
