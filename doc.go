// Package mix reads MIX archive containers, the asset archive format
// used by Command & Conquer: Red Alert.
//
// An archive is a header, a table of entries keyed by a filename
// checksum, and a payload region:
//
//	[Header: 6 bytes]
//	  entry_count: u16 LE
//	  data_size:   u32 LE
//	[Entry table: entry_count * 12 bytes, sorted ascending by signed key]
//	  key:    i32 LE  - wwcrc checksum of the uppercased filename
//	  offset: u32 LE  - from the start of the payload region
//	  size:   u32 LE
//	[Payload region: data_size bytes]
//
// Extended archives begin with a 4-byte discriminator instead: a zero
// u16 followed by a u16 flag word (bit 0: trailing SHA-1 digest
// present, bit 1: index encrypted). Encrypted archives carry an 80-byte
// public-key-encrypted key block, then the header and entry table
// Blowfish-encrypted in 8-byte blocks, padded to a multiple of 8.
//
// Three compatibility quirks are preserved deliberately. The recovered
// index key is never validated, the trailing digest is recognized but
// never verified, and the entry table's sort order is trusted as-is
// (a misordered table is diagnosed through the optional logger and then
// used anyway). Fixing any of these would reject or misread archives
// that the original game accepts.
//
// Entry lookup hashes the filename with package wwcrc; stored payloads
// are often LCW-compressed, which package lcw decodes. Whether a given
// entry is compressed is decided by the asset layer above this package,
// not by the container.
package mix
