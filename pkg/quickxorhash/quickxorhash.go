// Package quickxorhash implements QuickXorHash, the content hash Microsoft
// Graph reports for files in SharePoint and OneDrive for Business drives.
//
// Each input byte is XORed into a 160-bit circular register at a bit
// position that advances by 11 per byte. The digest is the register in
// little-endian order with the total input length XORed into its last
// eight bytes.
//
// Reference: https://learn.microsoft.com/en-us/onedrive/developer/code-snippets/quickxorhash
package quickxorhash

import (
	"encoding/base64"
	"encoding/binary"
	"hash"
)

const (
	// Size is the length, in bytes, of a QuickXorHash digest.
	Size = 20

	// BlockSize is the preferred input block size for the hash, in bytes.
	BlockSize = 64

	width    = 160 // register width in bits
	step     = 11  // bit advance per input byte
	lastBits = 32  // bits used in the final register cell
)

// digest holds the register as two full 64-bit cells and one 32-bit cell.
type digest struct {
	cells [3]uint64
	pos   int
	n     uint64
}

// New returns a new hash.Hash computing the QuickXorHash checksum.
func New() hash.Hash {
	return &digest{}
}

// Sum64 is a convenience wrapper that hashes b and returns the digest in
// the base64 form Graph uses in its hashes facet.
func Sum64(b []byte) string {
	d := &digest{}
	_, _ = d.Write(b)

	return base64.StdEncoding.EncodeToString(d.Sum(nil))
}

func cellWidth(i int) int {
	if i == len(digest{}.cells)-1 {
		return lastBits
	}

	return 64
}

// Write absorbs p into the register. It never fails.
func (d *digest) Write(p []byte) (int, error) {
	for _, b := range p {
		i, off := d.pos/64, d.pos%64
		v := uint64(b)

		d.cells[i] ^= v << off

		// Bits that spill past this cell wrap into the next one.
		if w := cellWidth(i); off > w-8 {
			next := (i + 1) % len(d.cells)
			d.cells[next] ^= v >> (w - off)
		}

		d.pos = (d.pos + step) % width
	}

	d.n += uint64(len(p))

	return len(p), nil
}

// Sum appends the digest to b without changing the hash state.
func (d *digest) Sum(b []byte) []byte {
	var out [Size]byte

	binary.LittleEndian.PutUint64(out[0:8], d.cells[0])
	binary.LittleEndian.PutUint64(out[8:16], d.cells[1])
	binary.LittleEndian.PutUint32(out[16:20], uint32(d.cells[2])) //nolint:gosec // only the low 32 bits belong to the register

	var length [8]byte
	binary.LittleEndian.PutUint64(length[:], d.n)

	for i, l := range length {
		out[Size-len(length)+i] ^= l
	}

	return append(b, out[:]...)
}

func (d *digest) Reset() {
	*d = digest{}
}

func (d *digest) Size() int {
	return Size
}

func (d *digest) BlockSize() int {
	return BlockSize
}
