// Package tree projects a flat object listing into one browsable level.
package tree

import (
	"sort"
	"strings"
	"time"

	"github.com/slmtnm/s4fs/internal/keypath"
	"github.com/slmtnm/s4fs/internal/store"
)

// Kind tells rows apart.
type Kind int

const (
	KindParent Kind = iota
	KindFolder
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindParent:
		return "parent"
	case KindFolder:
		return "folder"
	case KindFile:
		return "file"
	}
	return "unknown"
}

// ParentName is the label of the parent-link row.
const ParentName = ".."

// Entry is one row of a projected level. Folder and parent rows carry no
// size or time.
type Entry struct {
	Name     string
	Kind     Kind
	Size     int64
	Modified time.Time
}

// IsFolder reports whether the row can be entered.
func (e Entry) IsFolder() bool {
	return e.Kind == KindFolder || e.Kind == KindParent
}

// FullKey returns the object key (or folder prefix) the row stands for
// when listed under current.
func (e Entry) FullKey(current string) string {
	if e.Kind == KindParent {
		return keypath.Parent(current)
	}
	return current + e.Name
}

// Project builds the rows shown for current from the records the backend
// returned for that prefix. Records are expected to be prefix-filtered
// already; only the relative structure is computed here.
func Project(current string, records []store.Object) []Entry {
	folders := make(map[string]struct{})
	var files []Entry

	for _, rec := range records {
		relative := keypath.Relative(rec.Key, current)
		if relative == "" {
			continue
		}

		parts := strings.Split(relative, keypath.Separator)
		if len(parts) > 1 {
			if parts[0] == "" {
				// "//" style keys have no nameable child
				continue
			}
			folders[parts[0]+keypath.Separator] = struct{}{}
			continue
		}

		files = append(files, Entry{
			Name:     relative,
			Kind:     KindFile,
			Size:     rec.Size,
			Modified: rec.LastModified,
		})
	}

	names := make([]string, 0, len(folders))
	for name := range folders {
		names = append(names, name)
	}
	sort.Strings(names)
	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	entries := make([]Entry, 0, len(names)+len(files)+1)
	if current != "" {
		entries = append(entries, Entry{Name: ParentName, Kind: KindParent})
	}
	for _, name := range names {
		entries = append(entries, Entry{Name: name, Kind: KindFolder})
	}
	return append(entries, files...)
}
