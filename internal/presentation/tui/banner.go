package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"  _                 _        _           ", "#34d399"},
	{" | |_ _ __ ___  ___| |_ _ __(_)_ __ ___  ", "#2dd4bf"},
	{" | __| '__/ _ \\/ _ \\ __| '__| | '_ ` _ \\ ", "#22d3ee"},
	{" | |_| | |  __/  __/ |_| |  | | | | | | |", "#38bdf8"},
	{"  \\__|_|  \\___|\\___|\\__|_|  |_|_| |_| |_|", "#60a5fa"},
}

// PrintBanner writes the treetrim banner, colored when w is a capable terminal.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
