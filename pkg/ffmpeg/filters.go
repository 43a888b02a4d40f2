package ffmpeg

import (
	"fmt"
	"strings"
)

// Scale adds a scale filter.
// Use -2 for width or height to auto-calculate while maintaining aspect ratio
// and ensuring even dimensions (required for h264).
func Scale(width, height int) Option {
	return Filter(fmt.Sprintf("scale=%d:%d", width, height))
}

// ScaleWidth scales to a specific width, auto-calculating height with even
// dimensions.
func ScaleWidth(width int) Option {
	return Scale(width, -2)
}

// ScaleFit scales to fit within width x height while preserving the source
// aspect ratio. The trunc expressions keep both dimensions even, which h264
// requires.
func ScaleFit(width, height int) Option {
	return Filter(fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,scale=trunc(iw/2)*2:trunc(ih/2)*2",
		width, height,
	))
}

// drawtextEscaper handles the characters that are special inside a drawtext
// text= parameter. Backslash must be replaced first.
var drawtextEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`:`, `\:`,
	`%`, `\%`,
	`,`, `\,`,
)

// EscapeDrawText escapes a string for use as a drawtext text parameter.
func EscapeDrawText(text string) string {
	return drawtextEscaper.Replace(text)
}

// DrawTextBox burns a text overlay into the bottom-right corner with a
// semi-transparent background box. The text is escaped for drawtext syntax.
func DrawTextBox(text string, fontSize int) Option {
	return Filter(fmt.Sprintf(
		"drawtext=text='%s':fontsize=%d:fontcolor=white@0.8:box=1:boxcolor=black@0.4:boxborderw=8:x=w-text_w-20:y=h-text_h-20",
		EscapeDrawText(text), fontSize,
	))
}
