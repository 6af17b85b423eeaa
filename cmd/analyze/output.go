package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/tejaspavanb/DeepFake/internal/model"
	"github.com/tejaspavanb/DeepFake/internal/render"
)

var (
	colorRed    = color.New(color.FgRed, color.Bold)
	colorGreen  = color.New(color.FgGreen, color.Bold)
	colorYellow = color.New(color.FgYellow, color.Bold)
	colorCyan   = color.New(color.FgCyan)
)

func verdictColor(v model.Verdict) *color.Color {
	switch v {
	case model.VerdictFake:
		return colorRed
	case model.VerdictReal:
		return colorGreen
	}
	return colorYellow
}

// printResult writes a human readable report of a.
func printResult(w io.Writer, a *model.Analysis) {
	colorCyan.Fprintf(w, "📁 %s (%s)\n", a.Filename, a.Kind)
	verdictColor(a.Verdict).Fprintf(w, "%s", a.Verdict)
	fmt.Fprintf(w, " with %s confidence\n", render.Percent(a.Confidence))

	if a.Kind == model.KindVideo {
		fmt.Fprintf(w, "🎞️  %d frames analysed: %d real, %d fake\n", len(a.Frames), a.RealFrames, a.FakeFrames)
		for _, f := range a.Frames {
			c := colorGreen
			if f.IsDeepfake {
				c = colorRed
			}
			c.Fprintf(w, "   %s\n", render.FrameLabel(f.Timestamp, f.Confidence))
		}
	}

	if len(a.Metadata) > 0 {
		colorCyan.Fprintln(w, "📋 Metadata")
		for _, row := range a.Metadata {
			fmt.Fprintf(w, "   %s: %s\n", row.Key, row.Value)
		}
	}
}
