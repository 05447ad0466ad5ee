package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/damoonsh/Halite/tick"
)

// Archive writes one JSON line per tick trace into a zstd stream.
type Archive struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// CreateArchive creates (or truncates) the archive at path.
func CreateArchive(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Archive{
		path: path,
		f:    f,
		enc:  enc,
		w:    bufio.NewWriterSize(enc, 128*1024),
	}, nil
}

func (a *Archive) Record(tr tick.Trace) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.w == nil {
		return fmt.Errorf("archive %s is closed", a.path)
	}

	b, err := json.Marshal(tr)
	if err != nil {
		return fmt.Errorf("marshal tick %d: %w", tr.Tick, err)
	}
	if _, err := a.w.Write(b); err != nil {
		return err
	}
	return a.w.WriteByte('\n')
}

func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var err1 error
	if a.w != nil {
		err1 = a.w.Flush()
		a.w = nil
	}
	if a.enc != nil {
		if err := a.enc.Close(); err1 == nil {
			err1 = err
		}
		a.enc = nil
	}
	if a.f != nil {
		if err := a.f.Close(); err1 == nil {
			err1 = err
		}
		a.f = nil
	}
	return err1
}

// ReadArchive calls fn for every trace in the archive, in write order.
// It stops at the first error returned by fn.
func ReadArchive(path string, fn func(tick.Trace) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		var tr tick.Trace
		if err := json.Unmarshal(sc.Bytes(), &tr); err != nil {
			return fmt.Errorf("%s:%d: unmarshal: %w", filepath.Base(path), line, err)
		}
		if err := fn(tr); err != nil {
			return err
		}
	}
	return sc.Err()
}
