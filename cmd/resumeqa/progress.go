package main

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

// barProgress renders ingestion progress as a single terminal bar, one step per batch.
type barProgress struct {
	w     io.Writer
	desc  string
	bar   *progressbar.ProgressBar
	ticks int
}

func newBarProgress(w io.Writer, desc string) *barProgress {
	return &barProgress{w: w, desc: desc}
}

// Begin creates the bar once the batch count is known.
func (p *barProgress) Begin(total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]"+p.desc+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(p.w)
		}),
	)
}

// Tick advances the bar by one batch.
func (p *barProgress) Tick() {
	p.ticks++
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}
