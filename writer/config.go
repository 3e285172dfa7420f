package writer

import (
	"fmt"

	"github.com/jlab-evio/evio/endian"
	"github.com/jlab-evio/evio/format"
	"github.com/jlab-evio/evio/internal/options"
)

// Config holds the tunables a Writer is built from. See spec.md §6.3 for
// the recognized option table.
type Config struct {
	order endian.EndianEngine

	compression          format.CompressionType
	compressionThreads   int
	ringSize             int
	splitBytes           uint64
	maxRecordEvents      int
	maxRecordBytes       int
	dictionaryXML        string
	firstEventBytes      []byte
}

func defaultConfig() *Config {
	return &Config{
		order:              endian.GetLittleEndianEngine(),
		compression:        format.CompressionNone,
		compressionThreads: 1,
		ringSize:           4,
		maxRecordEvents:    100000,
		maxRecordBytes:     8 * 1024 * 1024,
	}
}

// Option configures a Writer at construction time.
type Option = options.Option[*Config]

func (c *Config) setByteOrder(order endian.EndianEngine) {
	c.order = order
}

func (c *Config) setCompression(ct format.CompressionType) error {
	if _, err := compressionName(ct); err != nil {
		return err
	}
	c.compression = ct
	return nil
}

func (c *Config) setCompressionThreads(n int) error {
	if n < 1 {
		return fmt.Errorf("writer: compression_threads must be >= 1, got %d", n)
	}
	c.compressionThreads = n
	// Ring size is rounded up to at least the thread count and to a power
	// of two, per spec.md §6.3.
	if c.ringSize < n {
		c.ringSize = n
	}
	c.ringSize = nextPowerOfTwo(c.ringSize)
	return nil
}

func (c *Config) setRingSize(n int) error {
	if n < 1 {
		return fmt.Errorf("writer: ring_size must be >= 1, got %d", n)
	}
	if n < c.compressionThreads {
		n = c.compressionThreads
	}
	c.ringSize = nextPowerOfTwo(n)
	return nil
}

func (c *Config) setSplitBytes(n uint64) {
	c.splitBytes = n
}

func (c *Config) setMaxRecordEvents(n int) error {
	if n < 1 {
		return fmt.Errorf("writer: max_record_events must be >= 1, got %d", n)
	}
	c.maxRecordEvents = n
	return nil
}

func (c *Config) setMaxRecordBytes(n int) error {
	if n < 1 {
		return fmt.Errorf("writer: max_record_bytes must be >= 1, got %d", n)
	}
	c.maxRecordBytes = n
	return nil
}

func (c *Config) setDictionaryXML(xml string) {
	c.dictionaryXML = xml
}

func (c *Config) setFirstEventBytes(data []byte) {
	c.firstEventBytes = data
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// WithByteOrder sets the byte order written records and headers are
// encoded in. Defaults to little-endian.
func WithByteOrder(order endian.EndianEngine) Option {
	return options.NoError(func(c *Config) { c.setByteOrder(order) })
}

// WithLittleEndian is shorthand for WithByteOrder(endian.GetLittleEndianEngine()).
func WithLittleEndian() Option {
	return WithByteOrder(endian.GetLittleEndianEngine())
}

// WithBigEndian is shorthand for WithByteOrder(endian.GetBigEndianEngine()).
func WithBigEndian() Option {
	return WithByteOrder(endian.GetBigEndianEngine())
}

// WithCompression sets the record-payload compression algorithm.
func WithCompression(ct format.CompressionType) Option {
	return options.New(func(c *Config) error { return c.setCompression(ct) })
}

// WithCompressionThreads sets the number of parallel compressor workers.
// The ring size is rounded up to a power of two no smaller than n.
func WithCompressionThreads(n int) Option {
	return options.New(func(c *Config) error { return c.setCompressionThreads(n) })
}

// WithRingSize sets the number of in-flight record slots. It is rounded up
// to a power of two no smaller than the configured compression-thread count.
func WithRingSize(n int) Option {
	return options.New(func(c *Config) error { return c.setRingSize(n) })
}

// WithSplitBytes sets the target maximum bytes per output file; 0 (the
// default) disables splitting.
func WithSplitBytes(n uint64) Option {
	return options.NoError(func(c *Config) { c.setSplitBytes(n) })
}

// WithMaxRecordEvents caps the number of events placed in a single record.
func WithMaxRecordEvents(n int) Option {
	return options.New(func(c *Config) error { return c.setMaxRecordEvents(n) })
}

// WithMaxRecordBytes caps the uncompressed bytes placed in a single record.
func WithMaxRecordBytes(n int) Option {
	return options.New(func(c *Config) error { return c.setMaxRecordBytes(n) })
}

// WithDictionaryXML embeds an evio XML dictionary in the file-level user
// header, carried into every split file.
func WithDictionaryXML(xml string) Option {
	return options.NoError(func(c *Config) { c.setDictionaryXML(xml) })
}

// WithFirstEventBytes embeds a fully serialized event in the file-level
// user header; it is replayed at the start of every split, per spec.md §6.3.
func WithFirstEventBytes(data []byte) Option {
	return options.NoError(func(c *Config) { c.setFirstEventBytes(data) })
}

func compressionName(ct format.CompressionType) (string, error) {
	switch ct {
	case format.CompressionNone, format.CompressionLZ4Fast, format.CompressionLZ4High,
		format.CompressionGzip, format.CompressionZstd:
		return ct.String(), nil
	default:
		return "", fmt.Errorf("writer: invalid compression type %d", ct)
	}
}
