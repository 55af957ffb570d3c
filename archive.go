package mix

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"slices"

	"github.com/meigma/mix/internal/blowfish"
	"github.com/meigma/mix/internal/mixkey"
	"github.com/meigma/mix/wwcrc"
)

const keyBlockSize = mixkey.BlockSize

// Archive is a single open MIX container.
//
// An Archive owns its parsed entry table and, optionally, an in-memory
// copy of the payload region (see Cache). It holds no open file handle;
// uncached reads open the backing file per call. Archives are not safe
// for concurrent use without external synchronization.
type Archive struct {
	path      string
	header    Header
	entries   []Entry
	dataStart int64

	// cache holds the whole payload region while cached, nil otherwise.
	cache []byte

	eagerCache bool
	logger     *slog.Logger
}

// Open opens the archive at path and parses its header and entry table.
//
// All three container variants are handled: plain, extended, and
// encrypted. For encrypted archives the Blowfish key is recovered from
// the leading key block and the index decrypted transparently; the
// recovered key and any trailing digest are deliberately not validated,
// matching the behavior of the original loader.
func Open(path string, opts ...Option) (*Archive, error) {
	a := &Archive{path: path}
	for _, opt := range opts {
		opt(a)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mix: open: %w", err)
	}
	defer f.Close()

	if err := a.parse(f); err != nil {
		return nil, err
	}
	a.checkSorted()

	if a.eagerCache {
		if err := a.cacheFrom(f); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Archive) parse(f *os.File) error {
	var lead [4]byte
	if _, err := io.ReadFull(f, lead[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	first := binary.LittleEndian.Uint16(lead[0:2])
	if first == 0 {
		flags := binary.LittleEndian.Uint16(lead[2:4])
		hasDigest := flags&flagHasDigest != 0
		if flags&flagEncrypted != 0 {
			return a.parseEncrypted(f, hasDigest)
		}

		var hdr [headerSize]byte
		if _, err := io.ReadFull(f, hdr[:]); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidHeader, err)
		}
		a.header = headerFromBytes(hdr[:])
		a.header.Extended = true
		a.header.HasDigest = hasDigest
		return a.readEntryTable(f)
	}

	// Plain format: the four bytes already read are the first four of
	// the header.
	var rest [2]byte
	if _, err := io.ReadFull(f, rest[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	hdr := [headerSize]byte{lead[0], lead[1], lead[2], lead[3], rest[0], rest[1]}
	a.header = headerFromBytes(hdr[:])
	return a.readEntryTable(f)
}

func (a *Archive) readEntryTable(f *os.File) error {
	buf := make([]byte, int(a.header.EntryCount)*entrySize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return fmt.Errorf("%w: entry table: %v", ErrInvalidHeader, err)
	}
	a.entries = parseEntries(buf, int(a.header.EntryCount))

	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("mix: %w", err)
	}
	a.dataStart = pos
	return nil
}

// parseEncrypted reads an encrypted index: an 80-byte key block, then
// the header and entry table Blowfish-encrypted in 8-byte blocks.
func (a *Archive) parseEncrypted(f *os.File, hasDigest bool) error {
	var keyBlock [keyBlockSize]byte
	if _, err := io.ReadFull(f, keyBlock[:]); err != nil {
		return fmt.Errorf("%w: key block: %v", ErrInvalidHeader, err)
	}
	cipher := blowfish.NewCipher(mixkey.Recover(keyBlock[:]))

	// The first decrypted block yields the 6-byte header; its last two
	// bytes already belong to the first entry.
	var head [8]byte
	if _, err := io.ReadFull(f, head[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	cipher.Decrypt(&head)

	a.header = headerFromBytes(head[:headerSize])
	a.header.Extended = true
	a.header.HasDigest = hasDigest
	a.header.Encrypted = true

	indexSize := int(a.header.HeaderSize())
	encryptedSize := (indexSize + 7) &^ 7
	rest := make([]byte, encryptedSize-len(head))
	if _, err := io.ReadFull(f, rest); err != nil {
		return fmt.Errorf("%w: encrypted index: %v", ErrDecrypt, err)
	}
	for i := 0; i+8 <= len(rest); i += 8 {
		cipher.Decrypt((*[8]byte)(rest[i : i+8]))
	}

	tableLen := int(a.header.EntryCount) * entrySize
	table := make([]byte, 0, tableLen)
	table = append(table, head[headerSize:]...)
	table = append(table, rest...)
	if len(table) < tableLen {
		return fmt.Errorf("%w: %d bytes decrypted, %d entries declared",
			ErrDecrypt, len(table), a.header.EntryCount)
	}
	a.entries = parseEntries(table, int(a.header.EntryCount))

	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("mix: %w", err)
	}
	a.dataStart = pos
	return nil
}

func parseEntries(buf []byte, count int) []Entry {
	entries := make([]Entry, count)
	for i := range entries {
		entries[i] = entryFromBytes(buf[i*entrySize:])
	}
	return entries
}

// checkSorted is an opportunistic diagnostic only: the format invariant
// says the table is pre-sorted, and lookups trust it either way.
func (a *Archive) checkSorted() {
	for i := 1; i < len(a.entries); i++ {
		if a.entries[i].Key < a.entries[i-1].Key {
			a.log().Warn("mix entry table not sorted",
				"path", a.path, "index", i)
			return
		}
	}
}

func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// Path returns the path the archive was opened from.
func (a *Archive) Path() string { return a.path }

// Header returns the parsed header.
func (a *Archive) Header() Header { return a.header }

// Len returns the number of entries.
func (a *Archive) Len() int { return len(a.entries) }

// Entries returns an iterator over the entry table in stored order.
func (a *Archive) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range a.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// FindKey binary-searches the entry table for key, compared as signed
// 32-bit integers. When distinct filenames collide on the same key the
// format does not say which entry wins; the search deterministically
// returns one of them, and which one is inherited ambiguity.
func (a *Archive) FindKey(key int32) (Entry, bool) {
	i, ok := slices.BinarySearchFunc(a.entries, key, func(e Entry, k int32) int {
		return cmp.Compare(e.Key, k)
	})
	if !ok {
		return Entry{}, false
	}
	return a.entries[i], true
}

// Find looks up a filename. The name is hashed case-insensitively.
func (a *Archive) Find(name string) (Entry, bool) {
	return a.FindKey(int32(wwcrc.SumName(name)))
}

// Contains reports whether name is present.
func (a *Archive) Contains(name string) bool {
	_, ok := a.Find(name)
	return ok
}

// Read returns the stored bytes for name.
func (a *Archive) Read(name string) ([]byte, error) {
	e, ok := a.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return a.ReadEntry(e)
}

// ReadKey returns the stored bytes for a key.
func (a *Archive) ReadKey(key int32) ([]byte, error) {
	e, ok := a.FindKey(key)
	if !ok {
		return nil, fmt.Errorf("%w: key %08x", ErrNotFound, uint32(key))
	}
	return a.ReadEntry(e)
}

// ReadEntry returns the bytes for an entry, from the cache when one is
// held and from the backing file otherwise. The entry's range is
// bounds-checked against the payload region at read time.
func (a *Archive) ReadEntry(e Entry) ([]byte, error) {
	end := uint64(e.Offset) + uint64(e.Size)
	if end > uint64(a.header.DataSize) {
		return nil, fmt.Errorf("%w: entry %08x offset %d + size %d exceeds payload size %d",
			ErrInvalidFormat, uint32(e.Key), e.Offset, e.Size, a.header.DataSize)
	}

	if a.cache != nil {
		if end > uint64(len(a.cache)) {
			return nil, fmt.Errorf("%w: entry %08x exceeds cached payload",
				ErrInvalidFormat, uint32(e.Key))
		}
		out := make([]byte, e.Size)
		copy(out, a.cache[e.Offset:end])
		return out, nil
	}

	f, err := os.Open(a.path)
	if err != nil {
		return nil, fmt.Errorf("mix: %w", err)
	}
	defer f.Close()

	out := make([]byte, e.Size)
	if n, err := f.ReadAt(out, a.dataStart+int64(e.Offset)); n < len(out) {
		return nil, fmt.Errorf("mix: read entry: %w", err)
	}
	return out, nil
}

// Bytes returns a zero-copy slice of the cached payload for name.
// It returns false when the archive is not cached or the name is
// absent. The slice aliases the cache; it is invalidated by Uncache.
func (a *Archive) Bytes(name string) ([]byte, bool) {
	if a.cache == nil {
		return nil, false
	}
	e, ok := a.Find(name)
	if !ok {
		return nil, false
	}
	end := uint64(e.Offset) + uint64(e.Size)
	if end > uint64(len(a.cache)) {
		return nil, false
	}
	return a.cache[e.Offset:end], true
}

// Cache loads the entire payload region into memory. Subsequent reads
// are served from the copy without file I/O. Cache is a no-op when a
// cache is already held.
func (a *Archive) Cache() error {
	if a.cache != nil {
		return nil
	}
	f, err := os.Open(a.path)
	if err != nil {
		return fmt.Errorf("mix: cache: %w", err)
	}
	defer f.Close()
	return a.cacheFrom(f)
}

func (a *Archive) cacheFrom(f *os.File) error {
	if a.cache != nil {
		return nil
	}
	data := make([]byte, a.header.DataSize)
	if n, err := f.ReadAt(data, a.dataStart); n < len(data) {
		return fmt.Errorf("mix: cache payload: %w", err)
	}
	a.cache = data
	return nil
}

// Uncache drops the in-memory payload copy, if any.
func (a *Archive) Uncache() {
	a.cache = nil
}

// Cached reports whether the payload region is held in memory.
func (a *Archive) Cached() bool {
	return a.cache != nil
}
