package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/slmtnm/s4fs/internal/batch"
	"github.com/slmtnm/s4fs/internal/keypath"
	"github.com/slmtnm/s4fs/internal/ops"
	"github.com/slmtnm/s4fs/internal/store"
	"github.com/slmtnm/s4fs/internal/tree"
	"github.com/slmtnm/s4fs/internal/tui"
)

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse <bucket>",
		Short: "Open the interactive browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.browse(cmd, args[0])
		},
	}
}

// browse runs the TUI until the user quits.
func (a *app) browse(cmd *cobra.Command, bucket string) error {
	log, err := a.logger(false, nil)
	if err != nil {
		return err
	}

	events := make(batch.ChanSink, 64)
	svc, err := a.service(cmd.Context(), cmd, bucket, events, log)
	if err != nil {
		return err
	}

	m := tui.New(svc, events, tui.Options{
		StatusTimeout: a.settings.StatusTimeout,
		DownloadDir:   a.settings.DownloadDir,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

func newLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls <bucket> [path]",
		Short: "List one folder of a bucket",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 2 {
				path = folderArg(args[1])
			}

			svc, err := a.batchService(cmd, args[0])
			if err != nil {
				return err
			}
			entries, err := svc.Browse(cmd.Context(), path)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, e := range entries {
				switch e.Kind {
				case tree.KindParent:
					continue
				case tree.KindFolder:
					fmt.Fprintf(w, "DIR\t\t\t%s\n", e.Name)
				default:
					modified := ""
					if !e.Modified.IsZero() {
						modified = e.Modified.Local().Format("2006-01-02 15:04")
					}
					fmt.Fprintf(w, "\t%s\t%s\t%s\n", humanize.IBytes(uint64(max(e.Size, 0))), modified, e.Name)
				}
			}
			return w.Flush()
		},
	}
}

func newPutCmd(a *app) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "put <bucket> <dest> <file>...",
		Short: "Upload local files into a folder",
		Long: `Upload local files into the folder dest ("/" is the bucket root).
With -r each argument is a local directory, uploaded with its layout
into dest/<directory name>/.`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := folderArg(args[1])
			sources := args[2:]

			if !recursive {
				return a.runBatch(cmd, args[0], func(ctx context.Context, svc *ops.Service, c *batch.Canceler) batch.Result {
					return svc.UploadFiles(ctx, c, sources, dest)
				})
			}
			for _, dir := range sources {
				abs, err := filepath.Abs(dir)
				if err != nil {
					return fmt.Errorf("failed to resolve %s: %w", dir, err)
				}
				target := dest + keypath.FolderName(filepath.Base(abs))
				err = a.runBatch(cmd, args[0], func(ctx context.Context, svc *ops.Service, c *batch.Canceler) batch.Result {
					return svc.UploadFolder(ctx, c, dir, target)
				})
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Upload directories with their layout")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "get <bucket> <key>...",
		Short: "Download objects into a local directory",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = a.settings.DownloadDir
			}
			objects := make([]store.Object, 0, len(args)-1)
			for _, key := range args[1:] {
				objects = append(objects, store.Object{Key: keyArg(key)})
			}
			return a.runBatch(cmd, args[0], func(ctx context.Context, svc *ops.Service, c *batch.Canceler) batch.Result {
				return svc.DownloadFiles(ctx, c, objects, dir)
			})
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory to save into (default: download_dir setting)")
	return cmd
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <bucket> <key>...",
		Short: "Delete objects and folders",
		Long:  `Delete objects. Arguments ending in "/" delete the whole folder.`,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := make([]string, 0, len(args)-1)
			for _, key := range args[1:] {
				targets = append(targets, keyArg(key))
			}
			return a.runBatch(cmd, args[0], func(ctx context.Context, svc *ops.Service, c *batch.Canceler) batch.Result {
				return svc.Delete(ctx, c, targets)
			})
		},
	}
}

func newMvCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <bucket> <old> <new>",
		Short: "Rename an object or folder",
		Long: `Rename an object, or a folder when old ends in "/". The copy is made
first and the original is removed only when every copy succeeded.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldKey, newKey := args[1], args[2]
			if err := ops.ValidateName(oldKey); err != nil {
				return err
			}
			if err := ops.ValidateName(newKey); err != nil {
				return err
			}
			return a.runBatch(cmd, args[0], func(ctx context.Context, svc *ops.Service, c *batch.Canceler) batch.Result {
				if keypath.IsFolder(oldKey) {
					return svc.RenameFolder(ctx, c, folderArg(oldKey), folderArg(newKey))
				}
				return svc.RenameFile(ctx, c, keyArg(oldKey), strings.TrimSuffix(keyArg(newKey), keypath.Separator))
			})
		},
	}
}

func newMkdirCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <bucket> <path>",
		Short: "Create a folder marker",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ops.ValidateName(args[1]); err != nil {
				return err
			}
			svc, err := a.batchService(cmd, args[0])
			if err != nil {
				return err
			}
			path := folderArg(args[1])
			if err := svc.CreateFolder(cmd.Context(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
			return nil
		},
	}
}

// keyArg turns a key given on the command line into an object key. Keys
// are taken literally apart from a leading "/".
func keyArg(arg string) string {
	return strings.TrimLeft(arg, keypath.Separator)
}

// folderArg turns a folder given on the command line into a key prefix.
// Unlike keypath.Normalize it keeps repeated segments, so "x/x" names
// "x/x/" and not its parent.
func folderArg(arg string) string {
	return keypath.FolderName(keyArg(arg))
}

// batchService opens bucket for a non-interactive command.
func (a *app) batchService(cmd *cobra.Command, bucket string) (*ops.Service, error) {
	log, err := a.logger(true, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return a.service(cmd.Context(), cmd, bucket, newBarSink(cmd.ErrOrStderr()), log)
}

type operation func(ctx context.Context, svc *ops.Service, c *batch.Canceler) batch.Result

// runBatch runs op with a progress bar on stderr. An interrupt stops the
// batch after the current item.
func (a *app) runBatch(cmd *cobra.Command, bucket string, op operation) error {
	svc, err := a.batchService(cmd, bucket)
	if err != nil {
		return err
	}

	c := batch.NewCanceler()
	stop := cancelOnSignal(c, func() {
		fmt.Fprintln(cmd.ErrOrStderr(), "\ncancelling after the current item...")
	})
	defer stop()

	res := op(cmd.Context(), svc, c)
	if res.Outcome != batch.Completed {
		return errors.New(res.Summary())
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
	return nil
}

// cancelOnSignal sets c on SIGINT or SIGTERM until the returned stop is
// called.
func cancelOnSignal(c *batch.Canceler, notify func()) (stop func()) {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigs:
			if c.Cancel() {
				notify()
			}
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}
