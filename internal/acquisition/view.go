package acquisition

import "sync"

// View is the acquisition surface currently shown. Exactly one is active.
type View string

const (
	ViewUpload  View = "upload"
	ViewCamera  View = "camera"
	ViewPreview View = "preview"
)

// Releaser is a transient resource owned by a view, such as a camera session.
type Releaser interface {
	Cancel() error
}

// Tracker holds the active view and the resources that belong to it.
// Entering a view tears down the resources of the view being left.
type Tracker[C Releaser] struct {
	mu         sync.Mutex
	view       View
	camera     C
	hasCamera  bool
	preview    string
	previewGen uint64
}

// NewTracker returns a tracker showing the upload prompt.
func NewTracker[C Releaser]() *Tracker[C] {
	return &Tracker[C]{view: ViewUpload}
}

// View returns the active view.
func (t *Tracker[C]) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.view
}

// Preview returns the preview data URL, empty while it is still decoding.
func (t *Tracker[C]) Preview() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.preview
}

// Camera returns the live camera session, if the camera view is active.
func (t *Tracker[C]) Camera() (C, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.camera, t.hasCamera
}

// EnterUpload shows the upload prompt.
func (t *Tracker[C]) EnterUpload() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.preview = ""
	t.previewGen++
	t.view = ViewUpload
	return t.releaseCameraLocked()
}

// EnterCamera shows the live camera preview owned by session.
func (t *Tracker[C]) EnterCamera(session C) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.releaseCameraLocked()
	t.preview = ""
	t.previewGen++
	t.camera = session
	t.hasCamera = true
	t.view = ViewCamera
	return err
}

// BeginPreview switches to the static preview while the image is still
// decoding. The returned token must be passed to SetPreview.
func (t *Tracker[C]) BeginPreview() (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.releaseCameraLocked()
	t.preview = ""
	t.previewGen++
	t.view = ViewPreview
	return t.previewGen, err
}

// SetPreview stores a decoded preview. It is ignored when another view has
// been entered since the matching BeginPreview.
func (t *Tracker[C]) SetPreview(token uint64, dataURL string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if token != t.previewGen || t.view != ViewPreview {
		return false
	}
	t.preview = dataURL
	return true
}

// Release tears down any held resources without changing the view.
func (t *Tracker[C]) Release() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.view == ViewCamera {
		t.view = ViewUpload
	}
	return t.releaseCameraLocked()
}

func (t *Tracker[C]) releaseCameraLocked() error {
	if !t.hasCamera {
		return nil
	}
	var zero C
	session := t.camera
	t.camera = zero
	t.hasCamera = false
	return session.Cancel()
}
