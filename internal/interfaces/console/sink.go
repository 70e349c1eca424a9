package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"warrantfeed/internal/application/port"
	"warrantfeed/internal/domain"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiDim    = "\033[2m"
)

func colorize(s, c string) string { return c + s + ansiReset }

// Sink prints one snapshot line per batch, coloured by change direction.
type Sink struct {
	out   io.Writer
	color bool
	now   func() time.Time
}

func NewSink(out io.Writer, color bool) *Sink {
	if out == nil {
		out = os.Stdout
	}
	return &Sink{out: out, color: color, now: time.Now}
}

func (s *Sink) Publish(_ context.Context, quotes []domain.Quote) error {
	_, err := fmt.Fprintf(s.out, "%s %s\n", s.now().Format("2006-01-02 15:04:05"), s.Render(quotes))
	return err
}

func (s *Sink) Render(quotes []domain.Quote) string {
	var sb strings.Builder
	sb.WriteString(s.paint("[WARRANT] ", ansiDim))

	for i, q := range quotes {
		if i > 0 {
			sb.WriteString(s.paint("  ||  ", ansiDim))
		}
		c := ansiYellow
		switch {
		case q.Change > 0:
			c = ansiGreen
		case q.Change < 0:
			c = ansiRed
		}
		sb.WriteString(q.Symbol)
		sb.WriteString(" ")
		sb.WriteString(s.paint(fmt.Sprintf("%g (%+.2f%%)", q.Price, q.PercentChange), c))
		sb.WriteString(s.paint(fmt.Sprintf(" vol=%d", q.Volume), ansiDim))
	}
	return sb.String()
}

func (s *Sink) paint(v, c string) string {
	if !s.color {
		return v
	}
	return colorize(v, c)
}

var _ port.QuoteSink = (*Sink)(nil)
