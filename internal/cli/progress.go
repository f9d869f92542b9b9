package cli

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/slmtnm/s4fs/internal/batch"
)

// barSink renders batch events as a progress bar per item.
type barSink struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func newBarSink(out io.Writer) *barSink {
	return &barSink{out: out}
}

func (b *barSink) Send(ev batch.Event) {
	switch ev := ev.(type) {
	case batch.ItemStartEvent:
		b.start(describe(ev.Index, ev.Total, ev.Label))

	case batch.ProgressEvent:
		if b.bar == nil {
			b.start(describe(ev.Index, ev.Total, ev.Label))
		}
		if ev.Throughput != "" {
			b.bar.Describe(describe(ev.Index, ev.Total, ev.Label) + " " + ev.Throughput)
		}
		_ = b.bar.Set(int(ev.Percent))

	case batch.ItemResultEvent:
		if b.bar == nil {
			return
		}
		if ev.OK {
			_ = b.bar.Finish()
		} else {
			_ = b.bar.Exit()
			fmt.Fprintf(b.out, "\n%s: %s\n", ev.Label, ev.Message)
		}
		b.bar = nil
	}
}

func (b *barSink) start(description string) {
	b.bar = progressbar.NewOptions(100,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(b.out),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(b.out, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func describe(index, total int, label string) string {
	return fmt.Sprintf("[%d/%d] %s", index, total, label)
}
