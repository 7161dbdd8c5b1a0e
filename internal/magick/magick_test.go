package magick

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemshloyda/imageresizer/internal/sizing"
)

// fakeRunner возвращает заранее заданный результат и запоминает вызов.
type fakeRunner struct {
	result *RunResult
	err    error
	delay  time.Duration

	name string
	args []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (*RunResult, error) {
	f.name = name
	f.args = args
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return &RunResult{ExitCode: -1}, ctx.Err()
		}
	}
	if f.result == nil {
		return &RunResult{ExitCode: -1}, f.err
	}
	return f.result, f.err
}

func TestResizeToken(t *testing.T) {
	tests := []struct {
		w, h    int
		want    string
		wantErr bool
	}{
		{800, 600, "800x600", false},
		{800, 0, "800", false},
		{0, 600, "x600", false},
		{0, 0, "", true},
		{-1, -1, "", true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d", tt.w, tt.h), func(t *testing.T) {
			got, err := ResizeToken(tt.w, tt.h)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrNoDimensions)
				assert.Equal(t, KindValidation, KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIdentifyOutput(t *testing.T) {
	d, err := ParseIdentifyOutput("4000x3000\n")
	require.NoError(t, err)
	assert.Equal(t, sizing.Dimensions{Width: 4000, Height: 3000}, d)

	d, err = ParseIdentifyOutput("640x480\n320x240\n")
	require.NoError(t, err)
	assert.Equal(t, sizing.Dimensions{Width: 640, Height: 480}, d)

	_, err = ParseIdentifyOutput("identify: no decode delegate")
	assert.Error(t, err)
}

func TestProbe(t *testing.T) {
	runner := &fakeRunner{result: &RunResult{ExitCode: 0, Stdout: "4000x3000"}}
	p := NewProber(runner, Tool{Path: "identify"})

	d, known := p.Probe(context.Background(), "/photos/cat.jpg")
	assert.True(t, known)
	assert.Equal(t, sizing.Dimensions{Width: 4000, Height: 3000}, d)
	assert.Equal(t, "identify", runner.name)
	assert.Equal(t, []string{"-format", "%wx%h\n", "/photos/cat.jpg"}, runner.args)
}

func TestProbeMagick7(t *testing.T) {
	runner := &fakeRunner{result: &RunResult{Stdout: "10x20"}}
	p := NewProber(runner, Tool{Path: "magick", Args: []string{"identify"}})

	_, known := p.Probe(context.Background(), "a.png")
	assert.True(t, known)
	assert.Equal(t, "magick", runner.name)
	assert.Equal(t, []string{"identify", "-format", "%wx%h\n", "a.png"}, runner.args)
}

func TestProbeFallback(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
	}{
		{"nonzero exit", &fakeRunner{result: &RunResult{ExitCode: 1, Stderr: "boom"}}},
		{"garbage output", &fakeRunner{result: &RunResult{Stdout: "not dimensions"}}},
		{"zero dimensions", &fakeRunner{result: &RunResult{Stdout: "0x0"}}},
		{"tool missing", &fakeRunner{err: exec.ErrNotFound}},
		{"timeout", &fakeRunner{delay: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProber(tt.runner, Tool{Path: "identify"})
			p.SetTimeout(20 * time.Millisecond)

			d, known := p.Probe(context.Background(), "x.jpg")
			assert.False(t, known)
			assert.Equal(t, sizing.Fallback, d)
		})
	}
}

func TestResizeSuccess(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "nested", "deeper", "cat_resized.jpg")

	runner := &fakeRunner{result: &RunResult{ExitCode: 0}}
	r := NewResizer(runner, Tool{Path: "convert"})

	res, err := r.Resize(context.Background(), Request{
		Source: "/photos/cat.jpg",
		Output: out,
		Width:  1000,
		Height: 750,
	})
	require.NoError(t, err)

	assert.Equal(t, "convert", runner.name)
	assert.Equal(t, []string{"/photos/cat.jpg", "-resize", "1000x750", out}, runner.args)
	assert.Equal(t, "1000x750", res.Token)
	assert.Equal(t, "Resized successfully!\nSaved as: cat_resized.jpg", res.Message)

	info, err := os.Stat(filepath.Dir(out))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestResizeNonZeroExit(t *testing.T) {
	runner := &fakeRunner{result: &RunResult{ExitCode: 1, Stderr: "unsupported format\n"}}
	r := NewResizer(runner, Tool{Path: "convert"})

	_, err := r.Resize(context.Background(), Request{
		Source: "a.jpg",
		Output: filepath.Join(t.TempDir(), "b.jpg"),
		Width:  100,
	})
	require.Error(t, err)

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, KindNonZeroExit, e.Kind)
	assert.Equal(t, 1, e.ExitCode)
	assert.Equal(t, "unsupported format", e.Stderr)
	assert.Contains(t, err.Error(), "1")
	assert.Contains(t, err.Error(), "unsupported format")
	assert.Equal(t, []string{"a.jpg", "-resize", "100", runner.args[3]}, runner.args)
}

func TestResizeFailureKinds(t *testing.T) {
	tests := []struct {
		name     string
		runner   *fakeRunner
		wantKind Kind
		contains string
	}{
		{"missing", &fakeRunner{err: exec.ErrNotFound}, KindToolMissing, "apt install imagemagick"},
		{"missing absolute path", &fakeRunner{err: &os.PathError{Op: "fork/exec", Path: "/nope/convert", Err: os.ErrNotExist}}, KindToolMissing, "ImageMagick"},
		{"timeout", &fakeRunner{delay: time.Second}, KindTimeout, "timed out after 20ms"},
		{"unexpected", &fakeRunner{err: errors.New("permission denied")}, KindUnexpected, "permission denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResizer(tt.runner, Tool{Path: "convert"})
			r.SetTimeout(20 * time.Millisecond)

			_, err := r.Resize(context.Background(), Request{
				Source: "a.jpg",
				Output: filepath.Join(t.TempDir(), "b.jpg"),
				Height: 600,
			})
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestResizeValidation(t *testing.T) {
	runner := &fakeRunner{result: &RunResult{}}
	r := NewResizer(runner, Tool{Path: "convert"})

	_, err := r.Resize(context.Background(), Request{Source: "a.jpg", Output: "b.jpg"})
	assert.ErrorIs(t, err, ErrNoDimensions)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = r.Resize(context.Background(), Request{Source: "a.jpg", Width: 10})
	assert.ErrorIs(t, err, ErrNoOutput)

	assert.Empty(t, runner.name, "convert must not be started")
}

func TestResizeOutputDirFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	runner := &fakeRunner{result: &RunResult{}}
	r := NewResizer(runner, Tool{Path: "convert"})

	_, err := r.Resize(context.Background(), Request{
		Source: "a.jpg",
		Output: filepath.Join(blocker, "sub", "b.jpg"),
		Width:  10,
	})
	require.Error(t, err)
	assert.Equal(t, KindOutputDir, KindOf(err))
	assert.Contains(t, err.Error(), "output directory")
	assert.Empty(t, runner.name)
}

func TestExecRunnerRealProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "convert")
	body := "#!/bin/sh\n" +
		"if [ \"$3\" = \"1000x750\" ]; then echo ok; exit 0; fi\n" +
		"echo \"unsupported format\" >&2\n" +
		"exit 1\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0755))

	r := NewResizer(ExecRunner{}, Tool{Path: script})

	res, err := r.Resize(context.Background(), Request{
		Source: "in.jpg",
		Output: filepath.Join(dir, "out", "in_resized.jpg"),
		Width:  1000,
		Height: 750,
	})
	require.NoError(t, err)
	assert.Contains(t, res.Message, "in_resized.jpg")

	_, err = r.Resize(context.Background(), Request{
		Source: "in.jpg",
		Output: filepath.Join(dir, "out", "in_resized.jpg"),
		Width:  5,
	})
	require.Error(t, err)
	assert.Equal(t, KindNonZeroExit, KindOf(err))
	assert.True(t, strings.Contains(err.Error(), "unsupported format"))
}

func TestExecRunnerTimeoutKillsChildren(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "convert")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 3\n"), 0755))

	r := NewResizer(ExecRunner{}, Tool{Path: script})
	r.SetTimeout(200 * time.Millisecond)

	start := time.Now()
	_, err := r.Resize(context.Background(), Request{
		Source: "in.jpg",
		Output: filepath.Join(dir, "out.jpg"),
		Width:  5,
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.Less(t, elapsed, 2*time.Second, "sleep must be killed together with the shell")
}

func TestExecRunnerMissingTool(t *testing.T) {
	r := NewResizer(ExecRunner{}, Tool{Path: "imageresizer-definitely-missing-convert"})

	_, err := r.Resize(context.Background(), Request{
		Source: "in.jpg",
		Output: filepath.Join(t.TempDir(), "out.jpg"),
		Width:  5,
	})
	require.Error(t, err)
	assert.Equal(t, KindToolMissing, KindOf(err))
}

func TestEndToEndProbePresetResize(t *testing.T) {
	probeRunner := &fakeRunner{result: &RunResult{ExitCode: 0, Stdout: "4000x3000"}}
	original, known := NewProber(probeRunner, Tool{Path: "identify"}).Probe(context.Background(), "/p/photo.png")
	require.True(t, known)
	require.Equal(t, sizing.Dimensions{Width: 4000, Height: 3000}, original)

	state := sizing.Apply(sizing.NewState(original), sizing.SelectPreset(sizing.Preset25))
	require.Equal(t, sizing.Dimensions{Width: 1000, Height: 750}, state.Target())

	out := filepath.Join(t.TempDir(), "photo_resized.png")
	convRunner := &fakeRunner{result: &RunResult{ExitCode: 0}}
	res, err := NewResizer(convRunner, Tool{Path: "convert"}).Resize(context.Background(), Request{
		Source: "/p/photo.png",
		Output: out,
		Width:  state.Width,
		Height: state.Height,
	})
	require.NoError(t, err)
	assert.Equal(t, "1000x750", convRunner.args[2])
	assert.Contains(t, res.Message, "photo_resized.png")
}
