// Package viewer drives the document display pipeline: it fetches
// engine-served PDFs through an on-disk cache and presents them through
// one of several interchangeable strategies. Strategies differ in where
// rendering happens; the surrounding state (page, zoom, errors) is shared
// so switching strategies mid-read keeps the reader's place.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// Strategy selects how a document is presented.
type Strategy string

const (
	// StrategyBrowser hands the document to the system's default viewer.
	StrategyBrowser Strategy = "browser"
	// StrategyCanvas renders extracted page text inline.
	StrategyCanvas Strategy = "canvas"
	// StrategyFrame shows the engine-served document URL in a framed pane.
	StrategyFrame Strategy = "frame"
	// StrategyEmbed uses the vendor embed SDK session.
	StrategyEmbed Strategy = "embed"
)

// Strategies lists every selectable strategy in display order.
var Strategies = []Strategy{StrategyBrowser, StrategyCanvas, StrategyFrame, StrategyEmbed}

// ParseStrategy validates a user-supplied strategy name.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Strategies {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown viewer strategy %q (want browser, canvas, frame, or embed)", name)
}

// Phase tracks where a viewer load stands.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseError
)

// Zoom bounds shared by every strategy.
const (
	ZoomMin  = 0.5
	ZoomMax  = 3.0
	ZoomStep = 0.2
)

// State is the viewer's presentation state for one document.
type State struct {
	Strategy    Strategy
	Phase       Phase
	URL         string
	LocalPath   string
	CurrentPage int
	TotalPages  int
	Scale       float64
	Note        string
	Err         error

	Canvas *CanvasDocument
	Embed  *EmbedSession
}

// ZoomIn raises the scale one step, clamped to ZoomMax.
func (s *State) ZoomIn() {
	s.Scale = clampScale(s.Scale + ZoomStep)
}

// ZoomOut lowers the scale one step, clamped to ZoomMin.
func (s *State) ZoomOut() {
	s.Scale = clampScale(s.Scale - ZoomStep)
}

func clampScale(scale float64) float64 {
	if scale > ZoomMax {
		return ZoomMax
	}
	if scale < ZoomMin {
		return ZoomMin
	}
	return scale
}

// SetPage moves to a page, clamped to [1, TotalPages]. When the strategy
// carries a navigation handle the move is forwarded to it; without one the
// request is dropped rather than queued.
func (s *State) SetPage(page int) {
	if s.TotalPages > 0 {
		if page < 1 {
			page = 1
		}
		if page > s.TotalPages {
			page = s.TotalPages
		}
	} else if page < 1 {
		page = 1
	}
	s.CurrentPage = page
	if s.Strategy == StrategyEmbed && s.Embed != nil {
		s.Embed.Navigate(page)
	}
}

// NextPage and PrevPage step one page with the same clamping as SetPage.
func (s *State) NextPage() { s.SetPage(s.CurrentPage + 1) }
func (s *State) PrevPage() { s.SetPage(s.CurrentPage - 1) }

// Bootstrap loads documents into viewer state. All dependencies are
// injectable so loads can run against fakes.
type Bootstrap struct {
	Fetcher Fetcher
	SDK     *EmbedSDK
	Host    EmbedHost
	Poll    Poll

	// Probe checks that a URL is reachable before the frame strategy
	// commits to it. Defaults to a HEAD request.
	Probe func(ctx context.Context, docURL string) error
	// Launch opens a URL in the system viewer for the browser strategy.
	Launch func(docURL string) error
}

// NewBootstrap wires the default loader around a cache-backed fetcher.
func NewBootstrap(fetcher Fetcher, sdk *EmbedSDK, host EmbedHost) *Bootstrap {
	return &Bootstrap{
		Fetcher: fetcher,
		SDK:     sdk,
		Host:    host,
		Poll:    DefaultPoll,
		Probe:   probeURL,
		Launch:  launchSystemViewer,
	}
}

// Load presents a document with the given strategy. Loads that fail with
// a network-shaped error fall back to the browser strategy once, so a
// flaky engine connection still leaves the reader with a working view.
func (b *Bootstrap) Load(ctx context.Context, strategy Strategy, docURL string) State {
	state := b.load(ctx, strategy, docURL)
	if state.Phase == PhaseError && strategy != StrategyBrowser && looksNetworkError(state.Err) {
		fallback := b.load(ctx, StrategyBrowser, docURL)
		fallback.Note = fmt.Sprintf("%s strategy failed (%v); opened in browser instead", strategy, state.Err)
		return fallback
	}
	return state
}

// SwitchStrategy reloads the current document under a different strategy,
// discarding strategy-specific sub-state but keeping the reader's page
// when the new strategy can honor it.
func (b *Bootstrap) SwitchStrategy(ctx context.Context, prev State, next Strategy) State {
	state := b.Load(ctx, next, prev.URL)
	if state.Phase == PhaseReady && prev.CurrentPage > 1 {
		state.SetPage(prev.CurrentPage)
	}
	return state
}

func (b *Bootstrap) load(ctx context.Context, strategy Strategy, docURL string) State {
	state := State{
		Strategy:    strategy,
		Phase:       PhaseLoading,
		URL:         docURL,
		CurrentPage: 1,
		Scale:       1.0,
	}

	switch strategy {
	case StrategyBrowser:
		launch := b.Launch
		if launch == nil {
			launch = launchSystemViewer
		}
		if err := launch(docURL); err != nil {
			return state.fail(fmt.Errorf("open in browser: %w", err))
		}
		state.Phase = PhaseReady
		state.Note = "opened in system viewer"
		return state

	case StrategyCanvas:
		if b.Fetcher == nil {
			return state.fail(errors.New("canvas strategy needs a document fetcher"))
		}
		path, err := b.Fetcher.Fetch(ctx, docURL)
		if err != nil {
			return state.fail(err)
		}
		doc, err := OpenCanvasDocument(path)
		if err != nil {
			return state.fail(err)
		}
		state.LocalPath = path
		state.Canvas = doc
		state.TotalPages = doc.PageCount()
		state.Phase = PhaseReady
		return state

	case StrategyFrame:
		probe := b.Probe
		if probe == nil {
			probe = probeURL
		}
		if err := probe(ctx, docURL); err != nil {
			return state.fail(err)
		}
		state.Phase = PhaseReady
		return state

	case StrategyEmbed:
		session, err := b.loadEmbed(ctx, docURL)
		if err != nil {
			return state.fail(err)
		}
		state.Embed = session
		state.Phase = PhaseReady
		return state

	default:
		return state.fail(fmt.Errorf("unknown viewer strategy %q", strategy))
	}
}

func (b *Bootstrap) loadEmbed(ctx context.Context, docURL string) (*EmbedSession, error) {
	if b.SDK == nil {
		return nil, errors.New("embed strategy is not configured")
	}
	if err := awaitSDK(ctx, b.SDK, b.Poll); err != nil {
		return nil, err
	}
	container, err := b.awaitContainer(ctx)
	if err != nil {
		return nil, err
	}
	return b.SDK.Instantiate(container, docURL)
}

// awaitContainer waits for the host to register a display region, bounded
// by the same poll budget as SDK readiness. A host that never registers
// one surfaces as an error instead of an indefinite wait.
func (b *Bootstrap) awaitContainer(ctx context.Context) (*Container, error) {
	if b.Host == nil {
		return nil, errors.New("embed strategy has no display host")
	}
	var container *Container
	err := b.Poll.Await(ctx, func() bool {
		c, ok := b.Host.Container()
		if ok {
			container = c
		}
		return ok
	})
	if err != nil {
		if errors.Is(err, ErrPollTimeout) {
			return nil, errors.New("embed display region never became available")
		}
		return nil, err
	}
	return container, nil
}

func (s State) fail(err error) State {
	s.Phase = PhaseError
	s.Err = err
	return s
}

// looksNetworkError decides whether a load failure is worth a browser
// fallback. Parse errors and misconfiguration are not: retrying those
// under a different strategy would fail the same way.
func looksNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection refused", "connection reset", "no such host", "network", "download failed", "unreachable"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func probeURL(ctx context.Context, docURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, docURL, nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("document not reachable: %s", resp.Status)
	}
	return nil
}

func launchSystemViewer(docURL string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", docURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", docURL)
	default:
		cmd = exec.Command("xdg-open", docURL)
	}
	return cmd.Start()
}
