package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/slmtnm/s4fs/internal/keypath"
	"github.com/slmtnm/s4fs/internal/tree"
)

// View renders the current view
func (m Model) View() string {
	switch m.viewMode {
	case ViewBrowser:
		return m.viewBrowser()
	case ViewPreview:
		return m.viewPreview()
	case ViewHelp:
		return m.viewHelp()
	case ViewUpload:
		return m.viewUpload()
	}
	return ""
}

// viewBrowser renders the file browser view
func (m Model) viewBrowser() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(m.session.Title()))
	s.WriteString("\n\n")

	m.writeStatus(&s)

	if m.loading {
		s.WriteString("Loading...\n")
	} else if len(m.entries) == 0 {
		s.WriteString("No objects found in this location.\n")
	} else {
		for i, e := range m.entries {
			s.WriteString(m.renderEntry(i, e))
			s.WriteString("\n")
		}
	}

	if m.job != nil {
		s.WriteString("\n")
		s.WriteString(progressStyle.Render(m.job.line))
		s.WriteString("\n")
	}

	if box := m.renderDialog(); box != "" {
		s.WriteString("\n")
		s.WriteString(box)
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/k ↓/j: move • space: mark • enter: open • h: back • d: download • u: upload • n: new folder • R: rename • x: delete • esc: cancel • ?: help • q: quit"))

	return m.center(browserStyle.Render(s.String()))
}

func (m Model) renderEntry(i int, e tree.Entry) string {
	cursor := " "
	if i == m.cursor {
		cursor = ">"
	}
	mark := " "
	if m.marked[e.Name] {
		mark = markStyle.Render("*")
	}

	var line string
	switch e.Kind {
	case tree.KindParent, tree.KindFolder:
		line = fmt.Sprintf("%s%s %s", cursor, mark, directoryStyle.Render(e.Name))
	default:
		modified := ""
		if !e.Modified.IsZero() {
			modified = e.Modified.Local().Format("2006-01-02 15:04:05")
		}
		line = fmt.Sprintf("%s%s %s (%s) %s", cursor, mark, fileStyle.Render(e.Name), formatSize(e.Size), modified)
	}

	if i == m.cursor {
		line = selectedStyle.Render(line)
	}
	return line
}

// writeStatus writes the error or status line, if any.
func (m Model) writeStatus(s *strings.Builder) {
	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %s", m.err.Error())))
		s.WriteString("\n\n")
	} else if m.statusMessage != "" {
		s.WriteString(successStyle.Render(m.statusMessage))
		s.WriteString("\n\n")
	}
}

// renderDialog renders the open prompt or confirmation, if any.
func (m Model) renderDialog() string {
	switch {
	case m.confirm != nil:
		names := make([]string, 0, len(m.confirm))
		for _, key := range m.confirm {
			names = append(names, keypath.Display(key))
		}
		return promptStyle.Render(fmt.Sprintf("Delete %d item(s)?\n%s\n\ny: delete • any other key: keep",
			len(m.confirm), strings.Join(names, "\n")))

	case m.prompt.kind == promptNewFolder:
		return promptStyle.Render(fmt.Sprintf("New folder in %s\n%s\n\nenter: create • esc: cancel",
			keypath.Display(m.session.Path), m.prompt.input.View()))

	case m.prompt.kind == promptRename:
		return promptStyle.Render(fmt.Sprintf("Rename %s\n%s\n\nenter: rename • esc: cancel",
			m.prompt.target, m.prompt.input.View()))
	}
	return ""
}

// viewPreview renders the file preview view
func (m Model) viewPreview() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("Preview: %s", m.previewFileName)))
	s.WriteString("\n\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %s", m.err.Error())))
	} else {
		visibleHeight := m.height - 8
		if visibleHeight < 1 {
			visibleHeight = 10
		}

		var visibleLines []string
		totalLines := len(m.previewLines)
		if totalLines == 0 {
			visibleLines = []string{"[Empty file]"}
		} else if m.previewScroll < totalLines {
			end := min(m.previewScroll+visibleHeight, totalLines)
			visibleLines = m.previewLines[m.previewScroll:end]
		}

		var content strings.Builder
		for i, line := range visibleLines {
			content.WriteString(fmt.Sprintf("%4d │ %s\n", m.previewScroll+i+1, line))
		}
		if totalLines > visibleHeight {
			content.WriteString(fmt.Sprintf("\n[Showing lines %d-%d of %d]",
				m.previewScroll+1, m.previewScroll+len(visibleLines), totalLines))
		}

		// padding and borders take 8 columns
		s.WriteString(previewStyle.Width(m.previewWidth - 8).Render(content.String()))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("↑/k,↓/j: scroll • u/d: page up/down • g/G: top/bottom • ←/h/esc: back • q: quit"))

	return m.center(s.String())
}

// viewHelp renders the help view
func (m Model) viewHelp() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("S4 - Help"))
	s.WriteString("\n\n")

	help := `Navigation:
  ↑/k         Move cursor up
  ↓/j         Move cursor down
  ←/h         Go back to parent folder
  →/l/o/enter Enter folder or preview file
  ~           Go to bucket root
  r           Refresh current folder

Selection:
  space       Mark or unmark the row and move down
              Actions apply to marked rows, or to the row
              under the cursor when nothing is marked

File Operations:
  d           Download files to the download directory
  u           Upload files (space marks files, enter uploads)
  U           In the upload view, upload the highlighted folder
  n           Create a folder
  R           Rename file or folder
  x           Delete files and folders (asks first)
  esc/c       Cancel the running operation after the current item

Preview Navigation:
  ↑/k,↓/j     Scroll line by line
  u/d         Page up/down (10 lines)
  g/G         Jump to top/bottom
  ←/h/esc     Return to browser

Configuration:
  Credentials are read from .s3cfg in:
  - Current directory
  - Home directory (~/.s3cfg)
  - System directory (/etc/s3cfg)
  Settings are read from s4.yaml and S4_* environment variables.
`

	s.WriteString(help)
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc/?: back • q: quit"))

	return m.center(s.String())
}

// viewUpload renders the upload file selection view
func (m Model) viewUpload() string {
	var s strings.Builder

	displayPath := m.localPath
	if absPath, err := filepath.Abs(m.localPath); err == nil {
		displayPath = absPath
	}
	title := fmt.Sprintf("Local: %s → %s: %s", displayPath, m.session.Bucket, keypath.Display(m.session.Path))
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")

	m.writeStatus(&s)

	if len(m.localItems) == 0 {
		s.WriteString("No files or directories found.\n")
	} else {
		for i, item := range m.localItems {
			cursor := " "
			if i == m.localCursor {
				cursor = ">"
			}
			mark := " "
			if m.localMarked[item.Name] {
				mark = markStyle.Render("*")
			}

			var line string
			if item.IsDir {
				line = fmt.Sprintf("%s%s %s", cursor, mark, directoryStyle.Render(item.Name+"/"))
			} else {
				line = fmt.Sprintf("%s%s %s (%s)", cursor, mark, fileStyle.Render(item.Name), formatSize(item.Size))
			}

			if i == m.localCursor {
				line = selectedStyle.Render(line)
			}
			s.WriteString(line)
			s.WriteString("\n")
		}
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/k ↓/j: move • space: mark • enter: open/upload • U: upload folder • h: back • esc: cancel • q: quit"))

	return m.center(browserStyle.Render(s.String()))
}

// center places content in the middle of the terminal once its size is
// known.
func (m Model) center(content string) string {
	if m.width > 0 && m.height > 0 {
		centered := centerStyle.Width(m.width).Render(content)
		return verticalCenterStyle.Height(m.height).Render(centered)
	}
	return content
}

// calculatePreviewWidth calculates the optimal width for the preview window
func (m Model) calculatePreviewWidth() int {
	if len(m.previewLines) == 0 {
		return 80
	}

	maxLineLength := 0
	for _, line := range m.previewLines {
		// line numbers take 4 digits + " │ "
		maxLineLength = max(maxLineLength, utf8.RuneCountInString(line)+6)
	}

	// borders and padding
	optimalWidth := maxLineLength + 8

	maxAllowedWidth := max(m.width-10, 40)
	if optimalWidth > maxAllowedWidth {
		return maxAllowedWidth
	}
	return max(optimalWidth, 60)
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}

// formatSize formats file size in human-readable format
func formatSize(size int64) string {
	if size < 0 {
		size = 0
	}
	return humanize.IBytes(uint64(size))
}
