package escpos

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	esc = 0x1B
	gs  = 0x1D
	lf  = 0x0A
)

const (
	AlignLeft   = 0
	AlignCenter = 1
	AlignRight  = 2
)

const (
	FontNormal = 0x00
	FontDouble = 0x11
	FontTall   = 0x01
)

// DefaultWidth fits 80mm paper with font A.
const DefaultWidth = 42

// Document builds an ESC/POS byte stream for kitchen and bar printers.
type Document struct {
	buf   bytes.Buffer
	width int
	plain bool
}

// NewDocument starts a document with the given character width.
func NewDocument(charWidth int) *Document {
	if charWidth <= 0 {
		charWidth = DefaultWidth
	}
	d := &Document{width: charWidth}
	d.command(esc, '@')
	return d
}

// NewTextDocument lays out the same content without control codes, for
// print services that take plain text.
func NewTextDocument(charWidth int) *Document {
	if charWidth <= 0 {
		charWidth = DefaultWidth
	}
	return &Document{width: charWidth, plain: true}
}

func (d *Document) Width() int {
	return d.width
}

func (d *Document) FeedLines(n int) *Document {
	for i := 0; i < n; i++ {
		d.buf.WriteByte(lf)
	}
	return d
}

func (d *Document) SetAlign(align int) *Document {
	d.command(esc, 'a', byte(align))
	return d
}

func (d *Document) SetBold(on bool) *Document {
	b := byte(0)
	if on {
		b = 1
	}
	d.command(esc, 'E', b)
	return d
}

func (d *Document) SetFontSize(size byte) *Document {
	d.command(gs, '!', size)
	return d
}

// Text writes s followed by a line feed.
func (d *Document) Text(s string) *Document {
	d.buf.WriteString(s)
	d.buf.WriteByte(lf)
	return d
}

func (d *Document) TextF(format string, args ...any) *Document {
	return d.Text(fmt.Sprintf(format, args...))
}

func (d *Document) Separator(char rune) *Document {
	return d.Text(strings.Repeat(string(char), d.width))
}

// KeyValue prints key left-aligned and value right-aligned on one line.
func (d *Document) KeyValue(key, value string) *Document {
	return d.Text(d.justify(key, value))
}

// ItemLine prints "2x Whisky + Coke        25.00". Names that do not fit are
// wrapped onto continuation lines indented under the name.
func (d *Document) ItemLine(qty int, name, amount string) *Document {
	prefix := fmt.Sprintf("%dx ", qty)
	room := d.width - utf8.RuneCountInString(prefix) - utf8.RuneCountInString(amount) - 1
	if room < 1 || utf8.RuneCountInString(name) <= room {
		return d.Text(d.justify(prefix+name, amount))
	}
	first, rest := splitRunes(name, room)
	d.Text(d.justify(prefix+first, amount))
	indent := strings.Repeat(" ", utf8.RuneCountInString(prefix))
	for rest != "" {
		var chunk string
		chunk, rest = splitRunes(rest, d.width-len(indent))
		d.Text(indent + chunk)
	}
	return d
}

func (d *Document) Cut() *Document {
	d.command(gs, 'V', 0x00)
	return d
}

func (d *Document) PartialCut() *Document {
	d.command(gs, 'V', 0x01)
	return d
}

// Bytes returns the accumulated byte stream.
func (d *Document) Bytes() []byte {
	return d.buf.Bytes()
}

// String returns the text content; meaningful for text documents.
func (d *Document) String() string {
	return d.buf.String()
}

func (d *Document) command(b ...byte) {
	if d.plain {
		return
	}
	d.buf.Write(b)
}

func (d *Document) justify(left, right string) string {
	spaces := d.width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if spaces < 1 {
		spaces = 1
	}
	return left + strings.Repeat(" ", spaces) + right
}

func splitRunes(s string, n int) (string, string) {
	if n <= 0 {
		return s, ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s, ""
	}
	return string(runes[:n]), strings.TrimLeft(string(runes[n:]), " ")
}
