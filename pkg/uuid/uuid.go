// Package uuid provides UUID v7 generation for token identifiers.
// v7 ids sort by creation time, which keeps issued-token logs ordered.
package uuid

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// UUID represents a UUID v7 identifier.
type UUID [16]byte

// NewV7 generates a new UUID v7 (RFC 9562):
// - 48 bits: UNIX timestamp in milliseconds
// - 4 bits: version 0111
// - 12 bits: random
// - 2 bits: variant 10
// - 62 bits: random
func NewV7() UUID {
	return newV7(time.Now())
}

func newV7(t time.Time) UUID {
	var u UUID

	// crypto/rand.Read never returns an error.
	_, _ = rand.Read(u[6:])

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(t.UnixMilli()))
	copy(u[0:6], ts[2:])

	u[6] = 0x70 | (u[6] & 0x0f)
	u[8] = 0x80 | (u[8] & 0x3f)
	return u
}

// Time returns the millisecond timestamp embedded in u.
func (u UUID) Time() time.Time {
	var ts [8]byte
	copy(ts[2:], u[0:6])
	return time.UnixMilli(int64(binary.BigEndian.Uint64(ts[:])))
}

// String returns the UUID in standard form: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx
func (u UUID) String() string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", u[0:4], u[4:6], u[6:8], u[8:10], u[10:16])
}
