package console

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Arbor banner in a gradient when the profile supports colors.
func PrintBanner(w io.Writer, p termenv.Profile) {
	lines := []struct {
		text  string
		color string
	}{
		{`     _         _                `, "#818cf8"},
		{`    / \   _ __| |__   ___  _ __ `, "#a78bfa"},
		{`   / _ \ | '__| '_ \ / _ \| '__|`, "#c084fc"},
		{`  / ___ \| |  | |_) | (_) | |   `, "#e879f9"},
		{` /_/   \_\_|  |_.__/ \___/|_|   `, "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
