package walker

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// pendingDir is one frontier item: a discovered directory awaiting expansion
// and its own depth (the root has depth 0, its children depth 1).
type pendingDir struct {
	path  string
	depth int
}

// PathQueue is the FIFO frontier of directories to expand. It holds up to
// memLimit items in memory; past that the whole queue spills to an unlinked
// tempfile, and it migrates back to memory once drained below half the
// limit. Wide trees therefore bound traversal memory by the limit, not by
// the widest level.
//
// The queue is owned by a single goroutine (the listing stage) and is not
// safe for concurrent use.
type PathQueue struct {
	memLimit int

	mem  []pendingDir
	head int

	spill *spillFile
}

// NewPathQueue creates a queue that keeps at most memLimit items in memory.
// Non-positive limits fall back to a default suited to large traversals.
func NewPathQueue(memLimit int) *PathQueue {
	if memLimit <= 0 {
		memLimit = 512 * 1024
	}
	return &PathQueue{memLimit: memLimit}
}

// Len reports the number of pending directories.
func (q *PathQueue) Len() int {
	if q.spill != nil {
		return q.spill.len
	}
	return len(q.mem) - q.head
}

// Push appends a directory at the tail of the frontier.
func (q *PathQueue) Push(p pendingDir) error {
	if q.spill != nil {
		return q.spill.push(p)
	}
	if q.Len() < q.memLimit {
		q.mem = append(q.mem, p)
		return nil
	}
	spill, err := newSpillFile()
	if err != nil {
		return err
	}
	for q.head < len(q.mem) {
		if err := spill.push(q.mem[q.head]); err != nil {
			spill.close()
			return err
		}
		q.head++
	}
	if err := spill.push(p); err != nil {
		spill.close()
		return err
	}
	q.mem, q.head = nil, 0
	q.spill = spill
	return nil
}

// Pop removes and returns the directory at the head of the frontier.
// The caller must check Len first; popping an empty queue is an error.
func (q *PathQueue) Pop() (pendingDir, error) {
	if q.spill == nil {
		if q.head >= len(q.mem) {
			return pendingDir{}, fmt.Errorf("pop from empty frontier")
		}
		p := q.mem[q.head]
		q.head++
		if q.head == len(q.mem) {
			q.mem, q.head = q.mem[:0], 0
		}
		return p, nil
	}
	p, err := q.spill.pop()
	if err != nil {
		return pendingDir{}, err
	}
	if q.spill.len < q.memLimit/2 {
		for q.spill.len > 0 {
			item, err := q.spill.pop()
			if err != nil {
				return pendingDir{}, err
			}
			q.mem = append(q.mem, item)
		}
		q.spill.close()
		q.spill = nil
	}
	return p, nil
}

// Close releases the spill file if one is open.
func (q *PathQueue) Close() {
	if q.spill != nil {
		q.spill.close()
		q.spill = nil
	}
}

// spilled reports whether the queue is currently backed by the tempfile.
func (q *PathQueue) spilled() bool { return q.spill != nil }

// spillFile is the tempfile backing of an overflowed queue. The file is
// unlinked immediately after opening, so it disappears with the process.
// Each item is a "depth\tbytelen\n" header followed by the raw path bytes,
// so paths may contain any byte, including newlines.
type spillFile struct {
	wf     *os.File
	rf     *os.File
	writer *bufio.Writer
	reader *bufio.Reader
	len    int
}

func newSpillFile() (*spillFile, error) {
	wf, err := os.CreateTemp("", "bfind-frontier-*")
	if err != nil {
		return nil, err
	}
	rf, err := os.Open(wf.Name())
	if err != nil {
		wf.Close()
		os.Remove(wf.Name())
		return nil, err
	}
	os.Remove(wf.Name())
	return &spillFile{
		wf:     wf,
		rf:     rf,
		writer: bufio.NewWriterSize(wf, 1<<20),
		reader: bufio.NewReaderSize(rf, 1<<20),
	}, nil
}

func (s *spillFile) push(p pendingDir) error {
	if _, err := fmt.Fprintf(s.writer, "%d\t%d\n", p.depth, len(p.path)); err != nil {
		return err
	}
	if _, err := s.writer.WriteString(p.path); err != nil {
		return err
	}
	s.len++
	return nil
}

func (s *spillFile) pop() (pendingDir, error) {
	header, err := s.reader.ReadString('\n')
	if err == io.EOF {
		// The reader caught up with unflushed data; flush and read the rest
		// of the header (a record can straddle a flush boundary).
		if ferr := s.writer.Flush(); ferr != nil {
			return pendingDir{}, ferr
		}
		rest, rerr := s.reader.ReadString('\n')
		header += rest
		err = rerr
	}
	if err != nil {
		return pendingDir{}, err
	}
	header = strings.TrimSuffix(header, "\n")
	depthStr, sizeStr, ok := strings.Cut(header, "\t")
	if !ok {
		return pendingDir{}, fmt.Errorf("corrupt frontier spill header %q", header)
	}
	depth, err := strconv.Atoi(depthStr)
	if err != nil {
		return pendingDir{}, fmt.Errorf("corrupt frontier spill depth %q", depthStr)
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil || size < 0 {
		return pendingDir{}, fmt.Errorf("corrupt frontier spill length %q", sizeStr)
	}
	buf := make([]byte, size)
	n, err := io.ReadFull(s.reader, buf)
	if err != nil {
		if ferr := s.writer.Flush(); ferr != nil {
			return pendingDir{}, ferr
		}
		if _, rerr := io.ReadFull(s.reader, buf[n:]); rerr != nil {
			return pendingDir{}, rerr
		}
	}
	s.len--
	return pendingDir{path: string(buf), depth: depth}, nil
}

func (s *spillFile) close() {
	s.wf.Close()
	s.rf.Close()
}
