package tui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slmtnm/s4fs/internal/batch"
	"github.com/slmtnm/s4fs/internal/ops"
	"github.com/slmtnm/s4fs/internal/store/memory"
	"github.com/slmtnm/s4fs/internal/tree"
)

func seeded(keys ...string) *memory.Store {
	st := memory.New("bucket")
	for _, k := range keys {
		st.Seed(k, []byte("data:"+k))
	}
	return st
}

func newTestModel(t *testing.T, st *memory.Store, opts Options) Model {
	t.Helper()
	events := make(batch.ChanSink, 64)
	exec := batch.NewExecutor(events, zerolog.Nop(), batch.WithPollInterval(time.Millisecond))
	m := New(ops.New(st, exec, zerolog.Nop()), events, opts)
	m, _ = update(m, m.Init()())
	return m
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "home":
		return tea.KeyMsg{Type: tea.KeyHome}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = update(m, key(k))
	}
	return m, cmd
}

// runBatch executes the operation started by cmd and feeds its events
// back into the model until the batch is done. It returns the command the
// model issued for the DoneEvent.
func runBatch(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	require.NotNil(t, m.job, "a batch should be running")

	cmds, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	require.Len(t, cmds, 2)
	assert.Nil(t, cmds[0]())

	next := cmds[1]
	for m.job != nil {
		require.NotNil(t, next)
		m, next = update(m, next())
	}
	return m, next
}

func names(entries []tree.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestSession(t *testing.T) {
	s := Session{Bucket: "b"}
	assert.False(t, s.Up())

	s.Enter("a/")
	s.Enter("b/")
	assert.Equal(t, "a/b/", s.Path)
	assert.Equal(t, "Bucket: b | Path: /a/b/", s.Title())

	assert.True(t, s.Up())
	assert.Equal(t, "a/", s.Path)

	s.Root()
	assert.Equal(t, "", s.Path)
}

func TestModel_InitListsRoot(t *testing.T) {
	m := newTestModel(t, seeded("x/y.txt", "x/z/w.txt", "f.txt"), Options{})

	assert.False(t, m.loading)
	assert.Equal(t, []string{"x/", "f.txt"}, names(m.entries))
}

func TestModel_NavigateIntoFolderAndBack(t *testing.T) {
	m := newTestModel(t, seeded("x/y.txt", "x/z/w.txt", "f.txt"), Options{})

	m, cmd := press(m, "enter")
	assert.Equal(t, "x/", m.Session().Path)
	assert.True(t, m.loading)
	m, _ = update(m, cmd())
	assert.Equal(t, []string{tree.ParentName, "z/", "y.txt"}, names(m.entries))

	m, cmd = press(m, "backspace")
	assert.Equal(t, "", m.Session().Path)
	m, _ = update(m, cmd())
	assert.Equal(t, []string{"x/", "f.txt"}, names(m.entries))
}

func TestModel_StaleListingIgnored(t *testing.T) {
	m := newTestModel(t, seeded("x/y.txt", "f.txt"), Options{})

	m, _ = update(m, entriesLoadedMsg{path: "elsewhere/", entries: []tree.Entry{{Name: "nope"}}})
	assert.Equal(t, []string{"x/", "f.txt"}, names(m.entries))
}

func TestModel_MarkAndDelete(t *testing.T) {
	st := seeded("a.txt", "b.txt", "c.txt")
	m := newTestModel(t, st, Options{})

	m, _ = press(m, " ", " ")
	assert.True(t, m.marked["a.txt"])
	assert.True(t, m.marked["b.txt"])

	m, cmd := press(m, "x")
	assert.Nil(t, cmd)
	assert.Equal(t, []string{"a.txt", "b.txt"}, m.confirm)
	assert.Contains(t, m.View(), "Delete 2 item(s)?")

	m, cmd = press(m, "y")
	m, cmd = runBatch(t, m, cmd)

	assert.Equal(t, []string{"c.txt"}, st.Keys())
	assert.NoError(t, m.err)
	assert.Equal(t, "✓ delete complete: 2/2 succeeded", m.statusMessage)

	require.NotNil(t, cmd, "listing is refreshed after the batch")
	m, _ = update(m, cmd())
	assert.Equal(t, []string{"c.txt"}, names(m.entries))
	assert.Empty(t, m.marked)
}

func TestModel_DeleteDeclined(t *testing.T) {
	st := seeded("a.txt")
	m := newTestModel(t, st, Options{})

	m, _ = press(m, "x")
	require.NotNil(t, m.confirm)
	m, cmd := press(m, "n")

	assert.Nil(t, cmd)
	assert.Nil(t, m.confirm)
	assert.Nil(t, m.job)
	assert.Equal(t, []string{"a.txt"}, st.Keys())
}

func TestModel_CancelKeyStopsRunningBatch(t *testing.T) {
	m := newTestModel(t, seeded("a.txt"), Options{})
	c := batch.NewCanceler()
	m.job = &job{name: ops.OpUpload, cancel: c}

	m, _ = press(m, "esc")
	assert.True(t, c.Cancelled())
	assert.Contains(t, m.statusMessage, "cancelling")
}

func TestModel_SecondBatchRejectedWhileBusy(t *testing.T) {
	m := newTestModel(t, seeded("a.txt"), Options{})
	running := &job{name: ops.OpUpload, cancel: batch.NewCanceler()}
	m.job = running

	m, cmd := press(m, "d")
	assert.Nil(t, cmd)
	assert.ErrorIs(t, m.err, errBusy)
	assert.Same(t, running, m.job)
}

func TestModel_DownloadFolderReportsFailure(t *testing.T) {
	m := newTestModel(t, seeded("x/y.txt"), Options{DownloadDir: t.TempDir()})

	m, cmd := press(m, "d")
	m, _ = runBatch(t, m, cmd)

	require.Error(t, m.err)
	assert.Contains(t, m.err.Error(), ops.ErrFolderSelected.Error())
	assert.Empty(t, m.statusMessage)
}

func TestModel_DownloadMarkedFiles(t *testing.T) {
	dir := t.TempDir()
	m := newTestModel(t, seeded("a.txt", "b.txt"), Options{DownloadDir: dir})

	m, _ = press(m, " ", " ")
	m, cmd := press(m, "d")
	m, _ = runBatch(t, m, cmd)

	assert.NoError(t, m.err)
	assert.FileExists(t, filepath.Join(dir, "a.txt"))
	assert.FileExists(t, filepath.Join(dir, "b.txt"))
}

func TestModel_NewFolderPrompt(t *testing.T) {
	st := seeded("f.txt")
	m := newTestModel(t, st, Options{})

	m, _ = press(m, "n", "docs")
	assert.Contains(t, m.View(), "New folder in /")

	m, cmd := press(m, "enter")
	require.NotNil(t, cmd)
	m, cmd = update(m, cmd())

	assert.Equal(t, "✓ Created folder 'docs/'", m.statusMessage)
	assert.Equal(t, []string{"docs/", "f.txt"}, st.Keys())

	m, _ = update(m, cmd())
	assert.Equal(t, []string{"docs/", "f.txt"}, names(m.entries))
}

func TestModel_NewFolderRejectsInvalidName(t *testing.T) {
	st := seeded()
	m := newTestModel(t, st, Options{})

	m, cmd := press(m, "n", "..", "enter")
	assert.Nil(t, cmd)
	assert.ErrorIs(t, m.err, ops.ErrInvalidName)
	assert.Empty(t, st.Keys())
}

func TestModel_RenamePrompt(t *testing.T) {
	st := seeded("f.txt")
	m := newTestModel(t, st, Options{})

	m, _ = press(m, "R")
	assert.Equal(t, "f.txt", m.prompt.input.Value())

	m, _ = press(m, "backspace", "backspace", "backspace", "backspace", "backspace", "g.txt")
	m, cmd := press(m, "enter")
	m, _ = runBatch(t, m, cmd)

	assert.NoError(t, m.err)
	assert.Equal(t, []string{"g.txt"}, st.Keys())
}

func TestModel_RenamePromptEditsAtCursor(t *testing.T) {
	st := seeded("f.txt")
	m := newTestModel(t, st, Options{})

	m, _ = press(m, "R", "left", "left", "left", "left")
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("-v2"), Paste: true})
	assert.Equal(t, "f-v2.txt", m.prompt.input.Value())

	m, _ = press(m, "home", "old-")
	assert.Equal(t, "old-f-v2.txt", m.prompt.input.Value())
	assert.Contains(t, m.View(), "Rename f.txt")

	m, cmd := press(m, "enter")
	m, _ = runBatch(t, m, cmd)

	assert.NoError(t, m.err)
	assert.Equal(t, []string{"old-f-v2.txt"}, st.Keys())
}

func TestModel_PromptEscapeDiscardsInput(t *testing.T) {
	st := seeded()
	m := newTestModel(t, st, Options{})

	m, _ = press(m, "n", "tmp", "esc")
	assert.Equal(t, promptNone, m.prompt.kind)
	assert.Empty(t, st.Keys())
}

func TestModel_UploadMarkedLocalFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("h"), 0o644))

	st := seeded()
	m := newTestModel(t, st, Options{LocalDir: dir})

	m, cmd := press(m, "u")
	m, _ = update(m, cmd())
	require.Equal(t, ViewUpload, m.viewMode)
	require.Len(t, m.localItems, 3)
	assert.Equal(t, "..", m.localItems[0].Name)

	m, _ = press(m, "j", " ", " ")
	m, cmd = press(m, "enter")
	assert.Equal(t, ViewBrowser, m.viewMode)
	m, _ = runBatch(t, m, cmd)

	assert.NoError(t, m.err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, st.Keys())
}

func TestModel_UploadLocalFolder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "file.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "top.txt"), []byte("y"), 0o644))

	st := seeded()
	m := newTestModel(t, st, Options{LocalDir: dir})

	m, cmd := press(m, "u")
	m, _ = update(m, cmd())
	m, _ = press(m, "j")
	require.Equal(t, "sub", m.localItems[m.localCursor].Name)

	m, cmd = press(m, "U")
	m, _ = runBatch(t, m, cmd)

	assert.NoError(t, m.err)
	assert.Equal(t, []string{"sub/file.txt"}, st.Keys())
}

func TestModel_PreviewFile(t *testing.T) {
	m := newTestModel(t, seeded("x/y.txt", "f.txt"), Options{})

	m, cmd := press(m, "j", "enter")
	require.NotNil(t, cmd)
	m, _ = update(m, cmd())

	assert.Equal(t, ViewPreview, m.viewMode)
	assert.Equal(t, "f.txt", m.previewFileName)
	assert.Equal(t, []string{"data:f.txt"}, m.previewLines)
	assert.Contains(t, m.View(), "data:f.txt")

	m, _ = press(m, "esc")
	assert.Equal(t, ViewBrowser, m.viewMode)
}

func TestModel_StatusClearsAfterTimeout(t *testing.T) {
	m := newTestModel(t, seeded(), Options{StatusTimeout: time.Millisecond})

	m, cmd := m.setStatus("first")
	require.NotNil(t, cmd)
	stale := m.statusID
	m, _ = m.setStatus("second")

	m, _ = update(m, clearStatusMsg{id: stale})
	assert.Equal(t, "second", m.statusMessage)

	m, _ = update(m, clearStatusMsg{id: m.statusID})
	assert.Empty(t, m.statusMessage)
}

func TestModel_ProgressLineRendered(t *testing.T) {
	m := newTestModel(t, seeded("f.txt"), Options{})
	m.job = &job{name: ops.OpDownload, cancel: batch.NewCanceler()}

	m, cmd := update(m, batchEventMsg{event: batch.ProgressEvent{
		Op: ops.OpDownload, Label: "f.txt", Index: 1, Total: 2, Percent: 40, Throughput: "1.0 MB/s",
	}})
	require.NotNil(t, cmd, "keeps listening for events")
	assert.Equal(t, "download [1/2] f.txt  40% 1.0 MB/s", m.job.line)
	assert.Contains(t, m.View(), "download [1/2] f.txt")
}

func TestModel_DoneEventClearsJobAndReloads(t *testing.T) {
	m := newTestModel(t, seeded("f.txt"), Options{})
	m.job = &job{name: ops.OpDelete, cancel: batch.NewCanceler()}

	m, cmd := update(m, batchEventMsg{event: batch.DoneEvent{Result: batch.Result{
		Name: ops.OpDelete, Outcome: batch.Cancelled, Succeeded: 1, Skipped: 2,
	}}})

	assert.Nil(t, m.job)
	assert.EqualError(t, m.err, "delete cancelled (1 succeeded, 2 skipped)")
	require.NotNil(t, cmd)
	_, ok := cmd().(entriesLoadedMsg)
	assert.True(t, ok)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", formatSize(0))
	assert.Equal(t, "1.0 KiB", formatSize(1024))
	assert.Equal(t, "0 B", formatSize(-5))
}

func TestParentDir(t *testing.T) {
	assert.Equal(t, "..", parentDir("."))
	assert.Equal(t, "/tmp", parentDir("/tmp/x"))
	assert.Equal(t, ".", parentDir("x"))
}
