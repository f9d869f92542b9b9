package tui

import (
	"fmt"

	"github.com/slmtnm/s4fs/internal/keypath"
)

// Session is the browsing position: the bucket and the folder shown.
type Session struct {
	Bucket string
	Path   string
}

// Enter moves into the folder name below the current path.
func (s *Session) Enter(name string) {
	s.Path = keypath.Join(s.Path, name)
}

// Up moves to the parent folder. It reports false at the root.
func (s *Session) Up() bool {
	if s.Path == "" {
		return false
	}
	s.Path = keypath.Parent(s.Path)
	return true
}

// Root returns to the bucket root.
func (s *Session) Root() {
	s.Path = ""
}

func (s Session) Title() string {
	return fmt.Sprintf("Bucket: %s | Path: %s", s.Bucket, keypath.Display(s.Path))
}
