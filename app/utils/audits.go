package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

const (
	colorReset = "\033[0m"
)

// AuditLogger writes a component's log lines to logs/<name>.log and, when
// set, to an echo writer such as stderr.
type AuditLogger struct {
	*log.Logger
	file *os.File
}

type colorWriter struct {
	w     io.Writer
	color string
}

func NewAuditLogger(dir, name string, echo io.Writer, color string) (*AuditLogger, error) {
	audit := &AuditLogger{}

	var writers []io.Writer
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		file, err := os.OpenFile(filepath.Join(dir, fmt.Sprintf("%s.log", name)),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		audit.file = file
		writers = append(writers, file)
	}
	if echo != nil {
		writers = append(writers, colorWriter{w: echo, color: color})
	}
	out := io.Discard
	if len(writers) > 0 {
		out = io.MultiWriter(writers...)
	}
	audit.Logger = log.New(out, fmt.Sprintf("[%s] ", name), log.LstdFlags)
	return audit, nil
}

// Discard returns a logger that drops everything.
func Discard(name string) *AuditLogger {
	audit, _ := NewAuditLogger("", name, nil, "")
	return audit
}

func (a *AuditLogger) Close() error {
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}

func (cw colorWriter) Write(p []byte) (int, error) {
	if cw.color == "" {
		return cw.w.Write(p)
	}
	colored := append([]byte(cw.color), p...)
	colored = append(colored, []byte(colorReset)...)
	if _, err := cw.w.Write(colored); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (a *AuditLogger) Debugf(format string, v ...any) {
	a.Logger.Printf("🐛 "+format, v...)
}
