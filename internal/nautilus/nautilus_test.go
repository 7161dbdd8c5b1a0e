package nautilus

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemshloyda/imageresizer/internal/magick"
)

type fakeRunner struct {
	calls [][]string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (*magick.RunResult, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.err != nil {
		return nil, f.err
	}
	return &magick.RunResult{}, nil
}

func TestIsImage(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"photo.jpg", true},
		{"PHOTO.JPEG", true},
		{"scan.TIFF", true},
		{"logo.svg", true},
		{"anim.gif", true},
		{"notes.txt", false},
		{"archive.tar.gz", false},
		{"noext", false},
		{"image.heic", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsImage(tt.name))
		})
	}
}

func TestSelectionEligible(t *testing.T) {
	tests := []struct {
		name     string
		sel      Selection
		wantPath string
		wantOK   bool
	}{
		{"single local image", Selection{Paths: []string{"/p/a.png"}, URIs: []string{"file:///p/a.png"}}, "/p/a.png", true},
		{"uri only", Selection{URIs: []string{"file:///p/my%20pic.jpg"}}, "/p/my pic.jpg", true},
		{"args", SelectionFromArgs([]string{"/p/a.webp"}), "/p/a.webp", true},
		{"two items", Selection{Paths: []string{"/p/a.png", "/p/b.png"}}, "", false},
		{"nothing", Selection{}, "", false},
		{"remote", Selection{URIs: []string{"sftp://host/p/a.png"}}, "", false},
		{"not an image", Selection{Paths: []string{"/p/a.txt"}}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := tt.sel.Eligible()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestSelectionFromEnv(t *testing.T) {
	env := map[string]string{
		EnvSelectedPaths: "/p/a.png\n",
		EnvSelectedURIs:  "file:///p/a.png\n",
	}
	getenv := func(k string) string { return env[k] }

	assert.True(t, InScript(getenv))

	sel := SelectionFromEnv(getenv)
	assert.Equal(t, []string{"/p/a.png"}, sel.Paths)
	assert.Equal(t, []string{"file:///p/a.png"}, sel.URIs)
	assert.Equal(t, 1, sel.Len())

	assert.False(t, InScript(func(string) string { return "" }))
}

func newTestInstaller(t *testing.T) (*Installer, *fakeRunner, *bytes.Buffer) {
	t.Helper()
	home := t.TempDir()
	exe := filepath.Join(t.TempDir(), "imageresizer")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755))

	r := &fakeRunner{}
	var out bytes.Buffer
	i := NewInstaller(home, exe)
	i.SystemShare = filepath.Join(t.TempDir(), "share")
	i.Out = &out
	i.SetRunner(r)
	return i, r, &out
}

func TestInstall(t *testing.T) {
	i, r, _ := newTestInstaller(t)

	require.NoError(t, i.Install(context.Background()))

	link, err := os.Readlink(i.ScriptPath())
	require.NoError(t, err)
	assert.Equal(t, i.Executable, link)
	assert.Equal(t, [][]string{{"nautilus", "-q"}}, r.calls)
}

func TestInstallReplacesExisting(t *testing.T) {
	i, _, out := newTestInstaller(t)

	require.NoError(t, os.MkdirAll(filepath.Dir(i.ScriptPath()), 0755))
	require.NoError(t, os.WriteFile(i.ScriptPath(), []byte("old"), 0644))

	require.NoError(t, i.Install(context.Background()))
	assert.Contains(t, out.String(), "Удалён существующий файл")

	require.NoError(t, i.Install(context.Background()))
	assert.Contains(t, out.String(), "Удалена существующая ссылка")

	link, err := os.Readlink(i.ScriptPath())
	require.NoError(t, err)
	assert.Equal(t, i.Executable, link)
}

func TestInstallRestartFailureIsNotFatal(t *testing.T) {
	i, r, out := newTestInstaller(t)
	r.err = errors.New("executable file not found")

	require.NoError(t, i.Install(context.Background()))
	assert.Contains(t, out.String(), "nautilus -q")
}

func TestUninstall(t *testing.T) {
	i, r, _ := newTestInstaller(t)
	require.NoError(t, i.Install(context.Background()))

	legacy := filepath.Join(i.Home, ".local", "share", legacyExtension)
	require.NoError(t, os.MkdirAll(filepath.Dir(legacy), 0755))
	require.NoError(t, os.WriteFile(legacy, []byte("py"), 0644))

	removed, err := i.Uninstall(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Len(t, r.calls, 2)

	_, err = os.Lstat(i.ScriptPath())
	assert.True(t, os.IsNotExist(err))
	_, err = os.Lstat(legacy)
	assert.True(t, os.IsNotExist(err))
}

func TestUninstallNothing(t *testing.T) {
	i, r, out := newTestInstaller(t)

	removed, err := i.Uninstall(context.Background())
	assert.ErrorIs(t, err, ErrNothingRemoved)
	assert.Zero(t, removed)
	assert.Empty(t, r.calls)
	assert.Contains(t, out.String(), "Не найден")
}
