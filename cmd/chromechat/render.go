package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/gookit/color"

	"github.com/vovakirdan/chromechat/internal/proto"
)

var (
	mineStyle  = color.New(color.FgCyan, color.OpBold)
	otherStyle = color.New(color.FgWhite)
	timeStyle  = color.New(color.FgGray)
)

// renderer prints messages as they arrive. A shrinking list means the
// history was replaced, so everything is printed again.
type renderer struct {
	mu      sync.Mutex
	out     io.Writer
	isMine  func(proto.Message) bool
	printed int
}

func newRenderer(out io.Writer, isMine func(proto.Message) bool) *renderer {
	return &renderer{out: out, isMine: isMine}
}

func (r *renderer) Render(msgs []proto.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(msgs) < r.printed {
		fmt.Fprintln(r.out, "-- history reloaded --")
		r.printed = 0
	}
	if len(msgs) == 0 && r.printed == 0 {
		fmt.Fprintln(r.out, "No messages yet")
		return
	}
	for _, m := range msgs[r.printed:] {
		fmt.Fprintln(r.out, r.line(m))
	}
	r.printed = len(msgs)
}

func (r *renderer) line(m proto.Message) string {
	if r.isMine(m) {
		return fmt.Sprintf("%s %s %s", timeStyle.Sprint(m.Time), mineStyle.Sprint("me   "), mineStyle.Sprint(m.Text))
	}
	return fmt.Sprintf("%s %s %s", timeStyle.Sprint(m.Time), otherStyle.Sprint("other"), otherStyle.Sprint(m.Text))
}
