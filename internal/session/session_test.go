package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemshloyda/imageresizer/internal/magick"
	"github.com/artemshloyda/imageresizer/internal/notify"
	"github.com/artemshloyda/imageresizer/internal/sizing"
)

type fakeResizer struct {
	mu      sync.Mutex
	release chan struct{}
	res     *magick.Result
	err     error
	reqs    []magick.Request
}

func (f *fakeResizer) Resize(_ context.Context, req magick.Request) (*magick.Result, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()

	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.sent {
		out = append(out, n.Title)
	}
	return out
}

type fakeRecorder struct {
	mu       sync.Mutex
	begun    []magick.Request
	finished map[string]error
}

func (f *fakeRecorder) Begin(req magick.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.begun = append(f.begun, req)
	return "rec-1", nil
}

func (f *fakeRecorder) Finish(id string, _ *magick.Result, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finished == nil {
		f.finished = map[string]error{}
	}
	f.finished[id] = err
	return nil
}

func TestDispatchDerivesHeight(t *testing.T) {
	s := New("a.jpg", sizing.Dimensions{Width: 1920, Height: 1080}, &fakeResizer{}, Options{})

	st := s.Dispatch(sizing.SetWidth(960))
	assert.Equal(t, 960, st.Width)
	assert.Equal(t, 540, st.Height)
	assert.Equal(t, st, s.State())
	assert.Equal(t, "a.jpg", s.Source())
}

func TestStartValidation(t *testing.T) {
	n := &recordingNotifier{}
	r := &fakeResizer{}
	s := New("a.jpg", sizing.Dimensions{Width: 100, Height: 100}, r, Options{Notifier: n})

	err := s.Start(context.Background(), "out.jpg", sizing.FormatSame)
	require.Error(t, err)
	assert.ErrorIs(t, err, magick.ErrNoDimensions)
	assert.Equal(t, magick.KindValidation, magick.KindOf(err))
	assert.False(t, s.Busy())
	s.WaitNotifications()
	assert.Equal(t, []string{"Error"}, n.titles())

	s.Dispatch(sizing.SetWidth(50))
	err = s.Start(context.Background(), "", sizing.FormatSame)
	assert.ErrorIs(t, err, magick.ErrNoOutput)
	assert.Empty(t, r.reqs)
}

// blockingNotifier не возвращается, пока не закрыт release.
type blockingNotifier struct {
	release chan struct{}
}

func (b *blockingNotifier) Notify(context.Context, notify.Notification) {
	<-b.release
}

func TestStartValidationDoesNotWaitForNotifier(t *testing.T) {
	n := &blockingNotifier{release: make(chan struct{})}
	s := New("a.jpg", sizing.Dimensions{Width: 100, Height: 100}, &fakeResizer{}, Options{Notifier: n})

	returned := make(chan error, 1)
	go func() { returned <- s.Start(context.Background(), "out.jpg", sizing.FormatSame) }()

	select {
	case err := <-returned:
		assert.ErrorIs(t, err, magick.ErrNoDimensions)
	case <-time.After(time.Second):
		t.Fatal("Start blocked on a stalled notifier")
	}

	close(n.release)
	s.WaitNotifications()
}

func TestStartSuccess(t *testing.T) {
	n := &recordingNotifier{}
	rec := &fakeRecorder{}
	r := &fakeResizer{res: &magick.Result{Output: "out.jpg", Message: "Resized successfully!\nSaved as: out.jpg"}}
	s := New("a.jpg", sizing.Dimensions{Width: 4000, Height: 3000}, r, Options{
		Notifier: n,
		Recorder: rec,
	})
	s.Dispatch(sizing.SelectPreset(sizing.Preset25))

	require.NoError(t, s.Start(context.Background(), "out.jpg", sizing.FormatJPEG))

	var statuses []string
	done := s.Consume(func(m Message) {
		if m.Kind == MsgStatus {
			statuses = append(statuses, m.Text)
		}
	})

	require.NoError(t, done.Err)
	require.NotNil(t, done.Result)
	assert.Equal(t, "out.jpg", done.Result.Output)
	assert.Equal(t, []string{StatusStarting, StatusSuccess}, statuses)
	assert.False(t, s.Busy())
	assert.Equal(t, []string{"Resizing", "Success"}, n.titles())

	require.Len(t, r.reqs, 1)
	assert.Equal(t, 1000, r.reqs[0].Width)
	assert.Equal(t, 750, r.reqs[0].Height)
	assert.Equal(t, sizing.FormatJPEG, r.reqs[0].Format)

	require.Len(t, rec.begun, 1)
	assert.Contains(t, rec.finished, "rec-1")
	assert.NoError(t, rec.finished["rec-1"])
}

func TestStartFailureHasNoClose(t *testing.T) {
	n := &recordingNotifier{}
	resizeErr := &magick.Error{Kind: magick.KindNonZeroExit, Message: "Resize failed. Return code: 1\nError: unsupported format", ExitCode: 1}
	r := &fakeResizer{err: resizeErr}
	s := New("a.jpg", sizing.Dimensions{}, r, Options{Notifier: n})
	s.Dispatch(sizing.SetHeight(600))

	require.NoError(t, s.Start(context.Background(), "out.jpg", sizing.FormatSame))

	var kinds []MessageKind
	done := s.Consume(func(m Message) {
		if m.Kind != MsgPulse {
			kinds = append(kinds, m.Kind)
		}
	})

	assert.Equal(t, resizeErr, done.Err)
	assert.Equal(t, []MessageKind{MsgStatus, MsgStatus, MsgDone}, kinds)
	assert.Equal(t, []string{"Resizing", "Error"}, n.titles())

	select {
	case m := <-s.Messages():
		t.Fatalf("unexpected message after failure: %+v", m)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStartBusy(t *testing.T) {
	r := &fakeResizer{release: make(chan struct{}), res: &magick.Result{Output: "o.jpg"}}
	s := New("a.jpg", sizing.Dimensions{Width: 10, Height: 10}, r, Options{PulseInterval: time.Millisecond})
	s.Dispatch(sizing.SetWidth(5))

	require.NoError(t, s.Start(context.Background(), "o.jpg", sizing.FormatSame))
	assert.True(t, s.Busy())
	assert.ErrorIs(t, s.Start(context.Background(), "o.jpg", sizing.FormatSame), ErrBusy)

	time.Sleep(20 * time.Millisecond)
	close(r.release)

	pulses := 0
	done := s.Consume(func(m Message) {
		if m.Kind == MsgPulse {
			pulses++
		}
	})
	require.NoError(t, done.Err)
	assert.Greater(t, pulses, 0)
	assert.False(t, s.Busy())

	r.mu.Lock()
	assert.Len(t, r.reqs, 1)
	r.mu.Unlock()
}

func TestBusyClearedBeforeDone(t *testing.T) {
	r := &fakeResizer{err: errors.New("boom")}
	s := New("a.jpg", sizing.Dimensions{}, r, Options{})
	s.Dispatch(sizing.SetWidth(1))

	require.NoError(t, s.Start(context.Background(), "o.jpg", sizing.FormatSame))
	for m := range s.Messages() {
		if m.Kind == MsgDone {
			assert.False(t, s.Busy())
			break
		}
	}
}

func TestContextCancelDoesNotAbort(t *testing.T) {
	r := &fakeResizer{release: make(chan struct{}), res: &magick.Result{Output: "o.jpg"}}
	s := New("a.jpg", sizing.Dimensions{}, r, Options{})
	s.Dispatch(sizing.SetWidth(1))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx, "o.jpg", sizing.FormatSame))
	cancel()
	close(r.release)

	done := s.Consume(nil)
	assert.NoError(t, done.Err)
}

func TestCloseDelay(t *testing.T) {
	r := &fakeResizer{res: &magick.Result{Output: "o.jpg"}}
	s := New("a.jpg", sizing.Dimensions{}, r, Options{CloseDelay: 30 * time.Millisecond})
	s.Dispatch(sizing.SetWidth(1))

	require.NoError(t, s.Start(context.Background(), "o.jpg", sizing.FormatSame))

	var doneAt, closeAt time.Time
	s.Consume(func(m Message) {
		switch m.Kind {
		case MsgDone:
			doneAt = time.Now()
		case MsgClose:
			closeAt = time.Now()
		}
	})
	require.False(t, closeAt.IsZero())
	assert.GreaterOrEqual(t, closeAt.Sub(doneAt), 25*time.Millisecond)
}
