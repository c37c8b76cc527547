// Package eventlog records every resolved turn of a run as compressed JSON
// lines and replays those logs against a fresh engine.
package eventlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"

	"wumpus/internal/engine"
	"wumpus/internal/world"
)

const Extension = ".jsonl.zst"

// Header is the first line of every turn log.
type Header struct {
	RunID    string       `json:"run_id"`
	Agent    string       `json:"agent,omitempty"`
	MaxTurns int          `json:"max_turns"`
	Layout   world.Layout `json:"layout"`
}

type line struct {
	Header *Header            `json:"header,omitempty"`
	Turn   *engine.TurnRecord `json:"turn,omitempty"`
}

// TurnLog writes one JSON line per turn into <dir>/<runID>.jsonl.zst.
type TurnLog struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
	err error
}

// Create opens a new turn log and writes its header.
func Create(dir string, header Header) (*TurnLog, error) {
	if strings.TrimSpace(header.RunID) == "" {
		return nil, fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := PathFor(dir, header.RunID)
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	l := &TurnLog{
		path: path,
		f:    f,
		enc:  enc,
		w:    bufio.NewWriterSize(enc, 64*1024),
	}
	if err := l.writeLine(line{Header: &header}); err != nil {
		_ = l.Close()
		return nil, err
	}
	return l, nil
}

func PathFor(dir, runID string) string {
	return filepath.Join(dir, runID+Extension)
}

func (l *TurnLog) Path() string {
	return l.path
}

func (l *TurnLog) Write(rec engine.TurnRecord) error {
	return l.writeLine(line{Turn: &rec})
}

// Observe is an engine observer. The first write error is kept and returned
// by Close.
func (l *TurnLog) Observe(rec engine.TurnRecord) {
	if err := l.Write(rec); err != nil {
		l.mu.Lock()
		if l.err == nil {
			l.err = err
		}
		l.mu.Unlock()
	}
}

func (l *TurnLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	if l.err != nil {
		errs = append(errs, l.err)
	}
	if l.w != nil {
		errs = append(errs, l.w.Flush())
		l.w = nil
	}
	if l.enc != nil {
		errs = append(errs, l.enc.Close())
		l.enc = nil
	}
	if l.f != nil {
		errs = append(errs, l.f.Close())
		l.f = nil
	}
	return errors.Join(errs...)
}

func (l *TurnLog) writeLine(v line) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.w == nil {
		return fmt.Errorf("turn log %s is closed", l.path)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := l.w.Write(b); err != nil {
		return err
	}
	return l.w.WriteByte('\n')
}

// ReadTurnLog decodes a log written by TurnLog.
func ReadTurnLog(path string) (Header, []engine.TurnRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return Header{}, nil, err
	}
	defer dec.Close()

	var (
		header    Header
		sawHeader bool
		records   []engine.TurnRecord
	)
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	n := 0
	for sc.Scan() {
		n++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
			return Header{}, nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), n, err)
		}
		switch {
		case l.Header != nil:
			if sawHeader {
				return Header{}, nil, fmt.Errorf("%s line %d: duplicate header", filepath.Base(path), n)
			}
			header, sawHeader = *l.Header, true
		case l.Turn != nil:
			records = append(records, *l.Turn)
		}
	}
	if err := sc.Err(); err != nil {
		return Header{}, nil, err
	}
	if !sawHeader {
		return Header{}, nil, fmt.Errorf("%s: missing header", filepath.Base(path))
	}
	return header, records, nil
}
