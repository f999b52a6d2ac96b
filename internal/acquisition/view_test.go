package acquisition

import (
	"errors"
	"testing"
)

type fakeSession struct {
	cancelled int
	err       error
}

func (f *fakeSession) Cancel() error {
	f.cancelled++
	return f.err
}

func TestTracker_StartsOnUpload(t *testing.T) {
	tr := NewTracker[*fakeSession]()

	if tr.View() != ViewUpload {
		t.Errorf("expected upload view, got %s", tr.View())
	}
	if _, ok := tr.Camera(); ok {
		t.Error("expected no camera session")
	}
}

func TestTracker_PreviewReleasesCamera(t *testing.T) {
	tr := NewTracker[*fakeSession]()
	session := &fakeSession{}

	if err := tr.EnterCamera(session); err != nil {
		t.Fatalf("EnterCamera failed: %v", err)
	}
	if tr.View() != ViewCamera {
		t.Fatalf("expected camera view, got %s", tr.View())
	}

	token, err := tr.BeginPreview()
	if err != nil {
		t.Fatalf("BeginPreview failed: %v", err)
	}
	if session.cancelled != 1 {
		t.Errorf("expected camera to be cancelled once, got %d", session.cancelled)
	}
	if _, ok := tr.Camera(); ok {
		t.Error("expected camera to be released")
	}

	if !tr.SetPreview(token, "data:image/png;base64,AAAA") {
		t.Error("expected preview to be stored")
	}
	if tr.Preview() != "data:image/png;base64,AAAA" {
		t.Errorf("unexpected preview: %q", tr.Preview())
	}
}

func TestTracker_StalePreviewIgnored(t *testing.T) {
	tr := NewTracker[*fakeSession]()

	token, _ := tr.BeginPreview()
	tr.EnterUpload()

	if tr.SetPreview(token, "data:late") {
		t.Error("expected stale preview to be ignored")
	}
	if tr.Preview() != "" {
		t.Errorf("expected empty preview, got %q", tr.Preview())
	}
	if tr.View() != ViewUpload {
		t.Errorf("expected upload view, got %s", tr.View())
	}
}

func TestTracker_SecondCameraReleasesFirst(t *testing.T) {
	tr := NewTracker[*fakeSession]()
	first := &fakeSession{}
	second := &fakeSession{}

	tr.EnterCamera(first)
	tr.EnterCamera(second)

	if first.cancelled != 1 {
		t.Errorf("expected first session cancelled, got %d", first.cancelled)
	}
	if second.cancelled != 0 {
		t.Errorf("expected second session alive, got %d cancels", second.cancelled)
	}
	got, ok := tr.Camera()
	if !ok || got != second {
		t.Error("expected second session to be current")
	}
}

func TestTracker_EnterUploadReportsReleaseError(t *testing.T) {
	tr := NewTracker[*fakeSession]()
	boom := errors.New("device busy")
	tr.EnterCamera(&fakeSession{err: boom})

	if err := tr.EnterUpload(); !errors.Is(err, boom) {
		t.Errorf("expected release error, got %v", err)
	}
	if tr.View() != ViewUpload {
		t.Errorf("expected upload view even when release fails, got %s", tr.View())
	}
}

func TestTracker_Release(t *testing.T) {
	tr := NewTracker[*fakeSession]()
	session := &fakeSession{}
	tr.EnterCamera(session)

	tr.Release()

	if session.cancelled != 1 {
		t.Errorf("expected session cancelled, got %d", session.cancelled)
	}
	if tr.View() != ViewUpload {
		t.Errorf("expected upload view after release, got %s", tr.View())
	}

	// Releasing again is a no-op
	tr.Release()
	if session.cancelled != 1 {
		t.Errorf("expected no second cancel, got %d", session.cancelled)
	}
}
