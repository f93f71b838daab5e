// Package serialize encodes frames for shipping between workers.
package serialize

import (
	"bytes"
	"slices"
	"sync"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/miretskiy/firn/frame"
	"github.com/pkg/errors"
)

// ArrowStreamType names the arrow IPC stream encoding.
const ArrowStreamType = "application/vnd.apache.arrow.stream"

// ErrNotRegistered is returned by Lookup for unknown codecs.
var ErrNotRegistered = errors.New("serializer not registered")

// Codec converts frames to and from bytes.
type Codec interface {
	Name() string
	Encode(df *frame.DataFrame) ([]byte, error)
	Decode(b []byte) (*frame.DataFrame, error)
}

// ArrowStream encodes a frame as a single-record arrow IPC stream. Aware
// datetime columns keep their zone in the timestamp type.
type ArrowStream struct {
	mem memory.Allocator
}

// NewArrowStream returns a codec allocating from mem, or from the default
// allocator when mem is nil.
func NewArrowStream(mem memory.Allocator) *ArrowStream {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return &ArrowStream{mem: mem}
}

func (c *ArrowStream) Name() string { return ArrowStreamType }

func (c *ArrowStream) Encode(df *frame.DataFrame) ([]byte, error) {
	rec, err := df.ToRecord(c.mem)
	if err != nil {
		return nil, err
	}
	defer rec.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(c.mem))
	if err := w.Write(rec); err != nil {
		w.Close()
		return nil, errors.Wrap(err, "write partition")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "close partition stream")
	}
	return buf.Bytes(), nil
}

func (c *ArrowStream) Decode(b []byte) (*frame.DataFrame, error) {
	r, err := ipc.NewReader(bytes.NewReader(b), ipc.WithAllocator(c.mem))
	if err != nil {
		return nil, errors.Wrap(err, "read partition")
	}
	defer r.Release()
	if !r.Next() {
		if r.Err() != nil {
			return nil, errors.Wrap(r.Err(), "read partition")
		}
		return nil, errors.New("no records for partition")
	}
	df, err := frame.FromRecord(r.Record())
	if err != nil {
		return nil, err
	}
	if r.Next() {
		return nil, errors.New("unexpected record in partition")
	}
	return df, nil
}

// Registry holds the codecs installed in one process or worker.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Codec)}
}

// Register installs c under its name, replacing any previous codec.
func (r *Registry) Register(c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[c.Name()] = c
}

// Lookup returns the codec called name.
func (r *Registry) Lookup(name string) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[name]
	if !ok {
		return nil, errors.Wrapf(ErrNotRegistered, "%q", name)
	}
	return c, nil
}

// Names lists the registered codec names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.codecs))
	for name := range r.codecs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
