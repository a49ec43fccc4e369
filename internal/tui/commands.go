package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nsharda/inklet/internal/backend"
	"github.com/nsharda/inklet/internal/viewer"
)

func healthJob(client *backend.Client) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 15*time.Second)
		defer cancel()
		health, err := client.CheckHealth(ctx)
		return healthResultMsg{health: health, err: err}, err
	}
}

func runtimeConfigJob(client *backend.Client) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 15*time.Second)
		defer cancel()
		cfg, err := client.FetchRuntimeConfig(ctx)
		return configResultMsg{cfg: cfg, err: err}, err
	}
}

func listDocumentsJob(client *backend.Client) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, time.Minute)
		defer cancel()
		docs, err := client.ListDocuments(ctx)
		return documentsResultMsg{docs: docs, err: err}, err
	}
}

func uploadJob(client *backend.Client, paths []string, skipped int) jobRunner {
	toSend := append([]string(nil), paths...)
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 10*time.Minute)
		defer cancel()
		files := make([]backend.UploadFile, 0, len(toSend))
		for _, path := range toSend {
			data, err := os.ReadFile(path)
			if err != nil {
				return uploadResultMsg{err: fmt.Errorf("read %s: %w", path, err)}, err
			}
			files = append(files, backend.UploadFile{Name: filepath.Base(path), Data: data})
		}
		docs, err := client.Upload(ctx, files)
		return uploadResultMsg{docs: docs, skipped: skipped, err: err}, err
	}
}

func sectionsJob(client *backend.Client, doc string, gen int) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
		defer cancel()
		sections, err := client.Sections(ctx, doc)
		return sectionsResultMsg{doc: doc, gen: gen, sections: sections, err: err}, err
	}
}

func relatedForDocumentJob(client *backend.Client, doc string, gen int) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
		defer cancel()
		related, err := client.RelatedForDocument(ctx, doc)
		return relatedResultMsg{doc: doc, gen: gen, related: related, err: err}, err
	}
}

func relatedForSelectionJob(client *backend.Client, doc string, gen int, selected string) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
		defer cancel()
		related, err := client.RelatedSections(ctx, doc, selected)
		return relatedResultMsg{doc: doc, gen: gen, related: related, err: err}, err
	}
}

func insightsJob(client *backend.Client, doc string, gen int, selected string) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
		defer cancel()
		insights, err := client.Insights(ctx, selected, 0)
		return insightsResultMsg{doc: doc, gen: gen, selection: selected, insights: insights, err: err}, err
	}
}

func audioJob(client *backend.Client, doc string, gen int, outline string) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
		defer cancel()
		url, err := client.GenerateAudio(ctx, outline)
		return audioResultMsg{doc: doc, gen: gen, url: url, err: err}, err
	}
}

func chatJob(client *backend.Client, doc string, history []backend.ChatMessage, selected, docContext string) jobRunner {
	messages := append([]backend.ChatMessage(nil), history...)
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
		defer cancel()
		reply, err := client.Chat(ctx, messages, selected, docContext)
		return chatResultMsg{doc: doc, reply: reply, err: err}, err
	}
}

func viewerLoadJob(bootstrap *viewer.Bootstrap, strategy viewer.Strategy, doc, docURL string, gen int) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 3*time.Minute)
		defer cancel()
		state := bootstrap.Load(ctx, strategy, docURL)
		return viewerResultMsg{doc: doc, gen: gen, state: state}, state.Err
	}
}

func viewerSwitchJob(bootstrap *viewer.Bootstrap, prev viewer.State, next viewer.Strategy, doc string, gen int) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 3*time.Minute)
		defer cancel()
		state := bootstrap.SwitchStrategy(ctx, prev, next)
		return viewerResultMsg{doc: doc, gen: gen, state: state}, state.Err
	}
}

// audioOutline shapes the narration request sent to the speech endpoint:
// a short header, the selected passage, then one line per insight.
func audioOutline(selected string, insights []backend.Insight) string {
	var b strings.Builder
	b.WriteString("Overview based on selected text and related insights.\n")
	b.WriteString("Selected: ")
	b.WriteString(strings.TrimSpace(selected))
	for _, insight := range insights {
		b.WriteString("\n- ")
		b.WriteString(insight.Type)
		b.WriteString(": ")
		b.WriteString(insight.Text)
	}
	return b.String()
}

func trimmedTitle(value string) string {
	value = strings.TrimSpace(value)
	if len(value) <= 60 {
		return value
	}
	return fmt.Sprintf("%s…", strings.TrimSpace(value[:57]))
}
