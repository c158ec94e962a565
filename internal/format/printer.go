package format

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/harrison/bfind/internal/entry"
	"github.com/harrison/bfind/internal/filelock"
)

// Printer renders each match through a compiled template to a writer.
type Printer struct {
	template *Template
	writer   *bufio.Writer
	file     *os.File
	lock     *filelock.FileLock
}

// NewPrinter creates a printer writing to w (normally os.Stdout).
func NewPrinter(t *Template, w io.Writer) *Printer {
	return &Printer{template: t, writer: bufio.NewWriter(w)}
}

// NewFilePrinter creates a printer appending to the file at path, holding an
// exclusive flock for the duration of the run so concurrent runs writing to
// the same file do not interleave lines.
func NewFilePrinter(t *Template, path string) (*Printer, error) {
	lock := filelock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("failed to open output file %s: %w", path, err)
	}
	return &Printer{
		template: t,
		writer:   bufio.NewWriter(f),
		file:     f,
		lock:     lock,
	}, nil
}

// Emit renders and writes one entry.
func (p *Printer) Emit(e *entry.Entry) error {
	if _, err := p.writer.WriteString(p.template.Render(e)); err != nil {
		return err
	}
	return p.writer.WriteByte('\n')
}

// Close flushes buffered output and releases the file lock if one is held.
func (p *Printer) Close() error {
	err := p.writer.Flush()
	if p.file != nil {
		if cerr := p.file.Close(); err == nil {
			err = cerr
		}
	}
	if p.lock != nil {
		if lerr := p.lock.Unlock(); err == nil {
			err = lerr
		}
	}
	return err
}
