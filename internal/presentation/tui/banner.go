package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the courselet banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"                                 _      _   ", "#818cf8"},
		{"  ___ ___  _   _ _ __ ___  ___  | | ___| |_ ", "#a78bfa"},
		{" / __/ _ \\| | | | '__/ __|/ _ \\ | |/ _ \\ __|", "#c084fc"},
		{"| (_| (_) | |_| | |  \\__ \\  __/ | |  __/ |_ ", "#e879f9"},
		{" \\___\\___/ \\__,_|_|  |___/\\___| |_|\\___|\\__|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
