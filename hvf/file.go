package hvf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/radioastro/uvio/codec"
	"github.com/radioastro/uvio/param"
)

// Layout names recorded in the dataset index.
const (
	layoutContiguous = "contiguous"
	layoutChunked    = "chunked"
)

type datasetInfo struct {
	Name     string      `json:"name"`
	Shape    [4]int      `json:"shape"`
	Dtype    DType       `json:"dtype"`
	Layout   string      `json:"layout"`
	Offset   int64       `json:"offset"`
	Compress Compression `json:"compress,omitempty"`
}

type datasetIndex struct {
	Datasets []datasetInfo `json:"datasets"`
}

// File is an open container. A File is not safe for concurrent use;
// handles are scoped per logical operation.
type File struct {
	f     *os.File
	path  string
	ro    bool
	cdc   codec.Codec
	attrs map[string]param.Value
	dsets map[string]*Dataset
	order []string
	eof   int64
	dirty bool
}

// Create makes a new container file. An existing path is refused unless
// clobber is set.
func Create(path string, clobber bool) (*File, error) {
	flags := os.O_RDWR | os.O_CREATE | os.O_EXCL
	if clobber {
		flags = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	}
	osf, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileExists, path)
		}
		return nil, fmt.Errorf("hvf: create %s: %w", path, err)
	}
	f := &File{
		f:     osf,
		path:  path,
		cdc:   codec.Default,
		attrs: make(map[string]param.Value),
		dsets: make(map[string]*Dataset),
		eof:   superblockSize,
		dirty: true,
	}
	// Reserve the superblock slot; the real block lands on flush.
	if _, err := osf.WriteAt(make([]byte, superblockSize), 0); err != nil {
		osf.Close()
		return nil, fmt.Errorf("hvf: create %s: %w", path, err)
	}
	return f, nil
}

// Open opens an existing container read-only.
func Open(path string) (*File, error) { return open(path, true) }

// OpenReadWrite opens an existing container for update.
func OpenReadWrite(path string) (*File, error) { return open(path, false) }

func open(path string, ro bool) (*File, error) {
	flags := os.O_RDWR
	if ro {
		flags = os.O_RDONLY
	}
	osf, err := os.OpenFile(path, flags, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("hvf: open %s: %w", path, err)
	}
	f := &File{
		f:     osf,
		path:  path,
		ro:    ro,
		dsets: make(map[string]*Dataset),
	}
	if err := f.load(); err != nil {
		osf.Close()
		return nil, err
	}
	return f, nil
}

func (f *File) load() error {
	buf := make([]byte, superblockSize)
	if _, err := f.f.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("hvf: read superblock of %s: %w", f.path, err)
	}
	var sb superblock
	if err := sb.decode(buf); err != nil {
		return err
	}
	cdc, ok := codec.ByName(sb.codecName())
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCodec, sb.codecName())
	}
	f.cdc = cdc

	hdr := make([]byte, sb.HeaderLen)
	if _, err := f.f.ReadAt(hdr, int64(sb.HeaderOff)); err != nil {
		return fmt.Errorf("hvf: read header region: %w", err)
	}
	if got := checksum(hdr); got != sb.HeaderCRC {
		return &ChecksumMismatchError{Region: "header", Expected: sb.HeaderCRC, Actual: got}
	}
	f.attrs = make(map[string]param.Value)
	if err := f.cdc.Unmarshal(hdr, &f.attrs); err != nil {
		return fmt.Errorf("hvf: decode header region: %w", err)
	}

	idx := make([]byte, sb.IndexLen)
	if _, err := f.f.ReadAt(idx, int64(sb.IndexOff)); err != nil {
		return fmt.Errorf("hvf: read dataset index: %w", err)
	}
	if got := checksum(idx); got != sb.IndexCRC {
		return &ChecksumMismatchError{Region: "index", Expected: sb.IndexCRC, Actual: got}
	}
	var di datasetIndex
	if err := f.cdc.Unmarshal(idx, &di); err != nil {
		return fmt.Errorf("hvf: decode dataset index: %w", err)
	}
	for i := range di.Datasets {
		d := &Dataset{file: f, info: di.Datasets[i]}
		if d.info.Layout == layoutChunked {
			if err := d.loadChunkTable(); err != nil {
				return err
			}
		}
		f.dsets[d.info.Name] = d
		f.order = append(f.order, d.info.Name)
	}

	fi, err := f.f.Stat()
	if err != nil {
		return fmt.Errorf("hvf: stat %s: %w", f.path, err)
	}
	f.eof = fi.Size()
	return nil
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

// Attr returns a header attribute.
func (f *File) Attr(name string) (param.Value, bool) {
	v, ok := f.attrs[name]
	return v, ok
}

// Attrs returns the live attribute map.
func (f *File) Attrs() map[string]param.Value { return f.attrs }

// SetAttr stores a header attribute. The change reaches disk on Flush
// or Close.
func (f *File) SetAttr(name string, v param.Value) error {
	if f.ro {
		return ErrReadOnly
	}
	f.attrs[name] = v
	f.dirty = true
	return nil
}

// DatasetNames lists datasets in creation order.
func (f *File) DatasetNames() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Dataset returns a dataset by name.
func (f *File) Dataset(name string) (*Dataset, error) {
	d, ok := f.dsets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchDataset, name)
	}
	return d, nil
}

// DatasetOption configures dataset creation.
type DatasetOption func(*datasetInfo)

// WithChunking stores the dataset as one compressed chunk per leading-
// axis row instead of a contiguous block.
func WithChunking(c Compression) DatasetOption {
	return func(di *datasetInfo) {
		di.Layout = layoutChunked
		di.Compress = c
	}
}

// CreateDataset allocates a zero-filled dataset at full shape.
func (f *File) CreateDataset(name string, shape [4]int, dt DType, opts ...DatasetOption) (*Dataset, error) {
	if f.ro {
		return nil, ErrReadOnly
	}
	if _, dup := f.dsets[name]; dup {
		return nil, fmt.Errorf("%w: %s", ErrDatasetExists, name)
	}
	if err := dt.Validate(); err != nil {
		return nil, err
	}
	for _, ext := range shape {
		if ext < 0 {
			return nil, fmt.Errorf("hvf: negative extent in shape %v", shape)
		}
	}

	info := datasetInfo{
		Name:   name,
		Shape:  shape,
		Dtype:  dt,
		Layout: layoutContiguous,
		Offset: f.eof,
	}
	for _, opt := range opts {
		opt(&info)
	}
	if info.Layout == layoutChunked && !info.Compress.Valid() {
		return nil, fmt.Errorf("hvf: unknown compression %q", info.Compress)
	}

	d := &Dataset{file: f, info: info}
	var reserve int64
	if info.Layout == layoutChunked {
		reserve = int64(shape[0]) * chunkEntrySize
		d.chunks = make([]chunkEntry, shape[0])
	} else {
		reserve = int64(shape[0]*shape[1]*shape[2]*shape[3]) * int64(dt.ElemSize())
	}
	if err := f.f.Truncate(f.eof + reserve); err != nil {
		return nil, fmt.Errorf("hvf: allocate dataset %s: %w", name, err)
	}
	f.eof += reserve

	f.dsets[name] = d
	f.order = append(f.order, name)
	f.dirty = true
	return d, nil
}

// appendBlob writes data at EOF and returns its offset.
func (f *File) appendBlob(data []byte) (int64, error) {
	off := f.eof
	if _, err := f.f.WriteAt(data, off); err != nil {
		return 0, err
	}
	f.eof += int64(len(data))
	return off, nil
}

// Flush rewrites the header-attribute region and dataset index at the
// end of the file and points the superblock at them.
func (f *File) Flush() error {
	if f.ro {
		return ErrReadOnly
	}
	hdr, err := f.cdc.Marshal(f.attrs)
	if err != nil {
		return fmt.Errorf("hvf: encode header region: %w", err)
	}
	di := datasetIndex{}
	for _, name := range f.order {
		di.Datasets = append(di.Datasets, f.dsets[name].info)
	}
	idx, err := f.cdc.Marshal(di)
	if err != nil {
		return fmt.Errorf("hvf: encode dataset index: %w", err)
	}

	hdrOff, err := f.appendBlob(hdr)
	if err != nil {
		return fmt.Errorf("hvf: write header region: %w", err)
	}
	idxOff, err := f.appendBlob(idx)
	if err != nil {
		return fmt.Errorf("hvf: write dataset index: %w", err)
	}

	sb := superblock{
		Magic:     MagicNumber,
		Version:   Version,
		HeaderOff: uint64(hdrOff),
		HeaderLen: uint64(len(hdr)),
		IndexOff:  uint64(idxOff),
		IndexLen:  uint64(len(idx)),
		HeaderCRC: checksum(hdr),
		IndexCRC:  checksum(idx),
	}
	copy(sb.CodecName[:], f.cdc.Name())
	if _, err := f.f.WriteAt(sb.encode(), 0); err != nil {
		return fmt.Errorf("hvf: write superblock: %w", err)
	}
	if err := f.f.Sync(); err != nil {
		return fmt.Errorf("hvf: sync %s: %w", f.path, err)
	}
	f.dirty = false
	return nil
}

// Close flushes pending header changes and releases the handle.
func (f *File) Close() error {
	var flushErr error
	if f.dirty && !f.ro {
		flushErr = f.Flush()
	}
	if err := f.f.Close(); err != nil && flushErr == nil {
		flushErr = err
	}
	return flushErr
}

// chunkEntry is one row in a chunked dataset's chunk table. A zero
// offset marks an unmaterialized chunk, which reads as zeros.
type chunkEntry struct {
	Off  uint64
	CLen uint32
	ULen uint32
}

const chunkEntrySize = 16

func encodeChunkEntry(buf []byte, e chunkEntry) {
	binary.LittleEndian.PutUint64(buf[0:], e.Off)
	binary.LittleEndian.PutUint32(buf[8:], e.CLen)
	binary.LittleEndian.PutUint32(buf[12:], e.ULen)
}

func decodeChunkEntry(buf []byte) chunkEntry {
	return chunkEntry{
		Off:  binary.LittleEndian.Uint64(buf[0:]),
		CLen: binary.LittleEndian.Uint32(buf[8:]),
		ULen: binary.LittleEndian.Uint32(buf[12:]),
	}
}
