package viewer

import "sync/atomic"

// PaneHost is the EmbedHost the UI feeds: the display region appears only
// after the first layout pass, so the embed strategy polls it instead of
// assuming it exists at load time.
type PaneHost struct {
	container atomic.Pointer[Container]
}

// Register publishes the display region. Later calls replace it.
func (h *PaneHost) Register(id string) {
	h.container.Store(&Container{ID: id})
}

func (h *PaneHost) Container() (*Container, bool) {
	c := h.container.Load()
	return c, c != nil
}
