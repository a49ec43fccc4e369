package viewer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultEmbedScriptURL is where the vendor hosts its viewer SDK.
const DefaultEmbedScriptURL = "https://acrobatservices.adobe.com/view-sdk/viewer.js"

// EmbedSDK owns the once-per-process load of the vendor's externally
// hosted viewer script. Independent viewer instances share one of these
// instead of each checking an ad hoc "already loaded" flag.
type EmbedSDK struct {
	scriptURL  string
	credential string
	client     *http.Client

	once    sync.Once
	ready   atomic.Bool
	loadMu  sync.Mutex
	loadErr error
}

// NewEmbedSDK returns an unloaded SDK handle. credential is the
// runtime-issued embed API key; the vendor accepts an empty one with
// reduced functionality, so it is not validated here.
func NewEmbedSDK(scriptURL, credential string, client *http.Client) *EmbedSDK {
	if scriptURL == "" {
		scriptURL = DefaultEmbedScriptURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &EmbedSDK{scriptURL: scriptURL, credential: credential, client: client}
}

// Start begins fetching the vendor script. Only the first call does any
// work; the script is loaded at most once per process lifetime. Readiness
// is observed via Ready, matching the vendor's own asynchronous
// initialization after script load.
func (s *EmbedSDK) Start() {
	s.once.Do(func() {
		go func() {
			err := s.fetchScript()
			s.loadMu.Lock()
			s.loadErr = err
			s.loadMu.Unlock()
			if err == nil {
				s.ready.Store(true)
			}
		}()
	})
}

// Ready reports whether the vendor SDK finished initializing.
func (s *EmbedSDK) Ready() bool {
	return s.ready.Load()
}

// Err returns the script-load failure, if any.
func (s *EmbedSDK) Err() error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return s.loadErr
}

func (s *EmbedSDK) fetchScript() error {
	req, err := http.NewRequest(http.MethodGet, s.scriptURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to load embed viewer script: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("embed viewer script fetch failed: %s", resp.Status)
	}
	// The script body itself is opaque; draining it completes the load.
	_, err = io.Copy(io.Discard, resp.Body)
	return err
}

// Container is the on-screen region the embed viewer attaches to. The UI
// registers one when the viewer surface first renders.
type Container struct {
	ID string
}

// EmbedHost exposes the container the embed strategy renders into.
type EmbedHost interface {
	Container() (*Container, bool)
}

// NavAPI is the vendor's page-navigation surface, obtained asynchronously
// and best-effort after instantiation.
type NavAPI interface {
	SetCurrentPage(page int) error
}

// EmbedSession is one instantiated vendor viewer bound to a container and
// document URL.
type EmbedSession struct {
	URL       string
	Container *Container

	nav atomic.Pointer[navHolder]
}

type navHolder struct {
	api NavAPI
}

// Instantiate binds the loaded SDK to a container and target document.
// The navigation API arrives later via AttachNav; until then page
// navigation requests are dropped.
func (s *EmbedSDK) Instantiate(container *Container, url string) (*EmbedSession, error) {
	if !s.Ready() {
		return nil, fmt.Errorf("embed SDK not ready")
	}
	if container == nil {
		return nil, fmt.Errorf("embed container missing")
	}
	return &EmbedSession{URL: url, Container: container}, nil
}

// AttachNav installs the asynchronously captured navigation handle.
// Failure to ever obtain one is silently tolerated.
func (sess *EmbedSession) AttachNav(api NavAPI) {
	if api == nil {
		return
	}
	sess.nav.Store(&navHolder{api: api})
}

// Navigate forwards a page request to the vendor viewer. Requests made
// before the handle arrives are dropped, not queued.
func (sess *EmbedSession) Navigate(page int) bool {
	holder := sess.nav.Load()
	if holder == nil {
		return false
	}
	return holder.api.SetCurrentPage(page) == nil
}

// awaitSDK wraps the bounded readiness poll with a timeout-specific error.
func awaitSDK(ctx context.Context, sdk *EmbedSDK, poll Poll) error {
	sdk.Start()
	err := poll.Await(ctx, sdk.Ready)
	if err == nil {
		return nil
	}
	if loadErr := sdk.Err(); loadErr != nil {
		return loadErr
	}
	if err == ErrPollTimeout {
		interval, attempts := poll.Interval, poll.Attempts
		if interval <= 0 {
			interval = DefaultPoll.Interval
		}
		if attempts <= 0 {
			attempts = DefaultPoll.Attempts
		}
		budget := time.Duration(attempts) * interval
		return fmt.Errorf("embed viewer did not become ready within %s: %w", budget, ErrPollTimeout)
	}
	return err
}
