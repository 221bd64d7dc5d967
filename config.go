// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memarena

const (
	// Alignment is the byte boundary every returned payload pointer honors.
	// It must be at least 16 and at least as strict as any scalar type.
	Alignment = 16

	// BlockMagic is the fixed sentinel written into every block header,
	// checked on every header touch for corruption detection.
	BlockMagic uint32 = 0xDEADBEEF

	// MinPayload is the smallest payload a free block may retain after a
	// split; splitting that would leave less is skipped in favor of
	// consuming the whole block.
	MinPayload = 16

	// SlabMinSize is the smallest slab size class.
	SlabMinSize = 16
	// SlabMaxSize is the largest slab size class; requests above this size
	// always route to a pool.
	SlabMaxSize = 128
	// slabClassCapacity is the fixed array capacity reserved for size
	// classes; the number of classes actually populated is derived from
	// SlabMinSize/SlabMaxSize at init and is always <= this capacity.
	slabClassCapacity = 8

	// DefaultSmallBlockSize is the historical small/large routing
	// threshold, superseded by SlabMaxSize for requests the slab front-end
	// can serve (kept for Config field parity with earlier callers).
	DefaultSmallBlockSize = 64
	// DefaultSmallPoolSize is the backing size of each pre-created small pool.
	DefaultSmallPoolSize = 1 << 20 // 1 MiB
	// DefaultLargePoolSize is the backing size of the fallback large pool.
	DefaultLargePoolSize = 10 << 20 // 10 MiB
	// DefaultMaxPools is the maximum number of pools, including pre-created ones.
	DefaultMaxPools = 8
	// DefaultSlabObjectsPerSlab is the number of objects carved from each
	// freshly obtained slab, when Config.SlabObjectsPerSlab is left at zero.
	DefaultSlabObjectsPerSlab = 64
)

// Config configures an Allocator at Init time. A zero Config is invalid;
// use DefaultConfig for sane defaults and override individual fields.
type Config struct {
	// SmallBlockSize is the historical small/large routing threshold. The
	// slab front-end supersedes it for requests <= SlabMaxSize.
	SmallBlockSize int
	// SmallPoolSize is the backing size for each pre-created small pool.
	SmallPoolSize int
	// LargePoolSize is the backing size for the fallback large pool.
	LargePoolSize int
	// MaxPools is the maximum number of pools, including pre-created ones.
	MaxPools int
	// SlabObjectsPerSlab is the number of objects carved from a freshly
	// obtained slab within each size class. Always respected; never
	// silently overridden by a hard-coded constant.
	SlabObjectsPerSlab int

	// UseMmapForLargePool obtains the large pool's backing buffer via
	// mmap(MAP_ANON|MAP_PRIVATE) on unix instead of a Go-managed []byte.
	// Has no effect on any allocator-observable semantics.
	UseMmapForLargePool bool
	// MmapThreshold is the minimum pool size, in bytes, eligible for a
	// mmap-backed arena when UseMmapForLargePool is set. Defaults to
	// LargePoolSize.
	MmapThreshold int

	// Diagnostics receives structured error records from every component.
	// Defaults to a ZerologSink writing to stderr when nil.
	Diagnostics DiagnosticSink
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() Config {
	return Config{
		SmallBlockSize:     DefaultSmallBlockSize,
		SmallPoolSize:      DefaultSmallPoolSize,
		LargePoolSize:      DefaultLargePoolSize,
		MaxPools:           DefaultMaxPools,
		SlabObjectsPerSlab: DefaultSlabObjectsPerSlab,
	}
}

// validate reports whether the configuration is usable, filling in
// zero-valued optional fields with their defaults.
func (c *Config) validate() error {
	if c.SmallPoolSize <= 0 || c.LargePoolSize <= 0 || c.MaxPools <= 0 {
		return ErrInvalidArgument
	}
	if c.SlabObjectsPerSlab <= 0 {
		c.SlabObjectsPerSlab = DefaultSlabObjectsPerSlab
	}
	if c.SmallBlockSize <= 0 {
		c.SmallBlockSize = DefaultSmallBlockSize
	}
	if c.MmapThreshold <= 0 {
		c.MmapThreshold = c.LargePoolSize
	}
	return nil
}

// alignUp rounds size up to the configured Alignment.
func alignUp(size int) int {
	return (size + Alignment - 1) &^ (Alignment - 1)
}
