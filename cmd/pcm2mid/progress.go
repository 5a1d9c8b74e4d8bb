package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	frameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	fillStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// progressBar draws a fixed width bar that only ever appends characters,
// so it works on terminals that can't move the cursor.
//
//	.________.
//	|=====
type progressBar struct {
	out    io.Writer
	width  int
	drawn  int
	opened bool
}

func newProgressBar(out io.Writer, width int) *progressBar {
	return &progressBar{out: out, width: width}
}

func (b *progressBar) Progress(done, total int) {
	if !b.opened {
		fmt.Fprintln(b.out, frameStyle.Render("."+strings.Repeat("_", b.width)+"."))
		fmt.Fprint(b.out, frameStyle.Render("|"))
		b.opened = true
	}
	if total <= 0 {
		return
	}
	target := min(b.width, b.width*done/total)
	if target > b.drawn {
		fmt.Fprint(b.out, fillStyle.Render(strings.Repeat("=", target-b.drawn)))
		b.drawn = target
	}
}

// Finish closes the bar. It does nothing if no progress was reported.
func (b *progressBar) Finish() {
	if !b.opened {
		return
	}
	fmt.Fprintln(b.out, frameStyle.Render("|"))
}
