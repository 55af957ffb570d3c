package mix

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/mix/wwcrc"
)

func TestManagerRegistrationOrderWins(t *testing.T) {
	t.Parallel()

	// The same name in two archives with different contents: the first
	// registered archive must answer.
	first := createArchive(t, []WriteFile{
		{Name: "RULES.INI", Data: []byte("first")},
		{Name: "ONLY1.DAT", Data: []byte("one")},
	})
	second := createArchive(t, []WriteFile{
		{Name: "RULES.INI", Data: []byte("second")},
		{Name: "ONLY2.DAT", Data: []byte("two")},
	})

	m := NewManager(nil)
	require.NoError(t, m.Register(first))
	require.NoError(t, m.Register(second))
	assert.Equal(t, 2, m.Len())

	got, err := m.Read("RULES.INI")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)

	a, _, ok := m.Find("rules.ini")
	require.True(t, ok)
	assert.Equal(t, first, a.Path())

	// Names unique to a later archive still resolve.
	got, err = m.Read("ONLY2.DAT")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)

	assert.True(t, m.Exists("ONLY1.DAT"))
	assert.False(t, m.Exists("NEITHER.DAT"))
}

func TestManagerUnregister(t *testing.T) {
	t.Parallel()

	first := createArchive(t, []WriteFile{{Name: "RULES.INI", Data: []byte("first")}})
	second := createArchive(t, []WriteFile{{Name: "RULES.INI", Data: []byte("second")}})

	m := NewManager(nil)
	require.NoError(t, m.Register(first))
	require.NoError(t, m.Register(second))

	require.True(t, m.Unregister(first))
	assert.Equal(t, 1, m.Len())
	assert.Nil(t, m.Archive(first))

	// The survivor takes over resolution.
	got, err := m.Read("RULES.INI")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)

	assert.False(t, m.Unregister(first), "already removed")
}

func TestManagerRegisterMissingFile(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	err := m.Register(filepath.Join(t.TempDir(), "absent.mix"))
	require.Error(t, err)
	assert.Zero(t, m.Len())
}

func TestManagerReadNotFound(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	require.NoError(t, m.Register(createArchive(t, testFiles())))

	_, err := m.Read("ABSENT.SHP")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerCacheByPath(t *testing.T) {
	t.Parallel()

	path := createArchive(t, testFiles())

	m := NewManager(nil)
	require.NoError(t, m.Register(path))

	_, ok := m.Bytes("TEST.DAT")
	assert.False(t, ok, "no cache yet")

	found, err := m.Cache(path)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, m.Archive(path).Cached())

	b, ok := m.Bytes("TEST.DAT")
	require.True(t, ok)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, b)

	assert.True(t, m.Uncache(path))
	assert.False(t, m.Archive(path).Cached())

	found, err = m.Cache(filepath.Join(t.TempDir(), "other.mix"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, m.Uncache("nope"))
}

func TestManagerRegisterCached(t *testing.T) {
	t.Parallel()

	path := createArchive(t, testFiles())

	m := NewManager(nil)
	require.NoError(t, m.RegisterCached(path))
	assert.True(t, m.Archive(path).Cached())

	b, ok := m.Bytes("TEST.DAT")
	require.True(t, ok)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, b)
}

func TestManagerBytesSkipsUncachedArchives(t *testing.T) {
	t.Parallel()

	uncached := createArchive(t, []WriteFile{{Name: "BOTH.DAT", Data: []byte("uncached")}})
	cached := createArchive(t, []WriteFile{{Name: "BOTH.DAT", Data: []byte("cached")}})

	m := NewManager(nil)
	require.NoError(t, m.Register(uncached))
	require.NoError(t, m.RegisterCached(cached))

	// The first archive wins the lookup but holds no cache, so Bytes
	// falls through to the cached one.
	b, ok := m.Bytes("BOTH.DAT")
	require.True(t, ok)
	assert.Equal(t, []byte("cached"), b)
}

func TestManagerNameRegistry(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	m.RegisterName("conquer.mix")

	key := int32(wwcrc.SumName("CONQUER.MIX"))
	name, ok := m.LookupName(key)
	require.True(t, ok)
	assert.Equal(t, "CONQUER.MIX", name)

	_, ok = m.LookupName(key + 1)
	assert.False(t, ok)
}

func TestManagerLoggerPropagates(t *testing.T) {
	t.Parallel()

	// An unsorted forged archive registered through a Manager with a
	// logger must emit the diagnostic through that logger.
	buf := []byte{
		0x02, 0x00, 0x02, 0x00, 0x00, 0x00,
		0xF4, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
		0x64, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
		'x', 'y',
	}
	path := filepath.Join(t.TempDir(), "unsorted.mix")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	var logBuf bytes.Buffer
	m := NewManager(slog.New(slog.NewTextHandler(&logBuf, nil)))
	require.NoError(t, m.Register(path))
	assert.Contains(t, logBuf.String(), "not sorted")
}
