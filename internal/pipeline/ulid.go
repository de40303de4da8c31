package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Job IDs are ULIDs: 48-bit millisecond timestamp then 80 random bits,
// rendered as 26 Crockford base32 characters so they sort by creation time.
// Within one millisecond the first two random bytes carry a counter.

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

type idSource struct {
	mu      sync.Mutex
	lastMS  uint64
	counter uint16
	now     func() time.Time
}

var jobIDs = &idSource{now: time.Now}

// NewJobID returns a new ULID string.
func NewJobID() string {
	return jobIDs.next()
}

func (s *idSource) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := uint64(s.now().UnixMilli())
	if ms == s.lastMS {
		s.counter++
	} else {
		s.lastMS = ms
		s.counter = 0
	}

	var b [16]byte
	binary.BigEndian.PutUint16(b[0:2], uint16(ms>>32))
	binary.BigEndian.PutUint32(b[2:6], uint32(ms))
	rand.Read(b[8:])
	binary.BigEndian.PutUint16(b[6:8], s.counter)
	return encodeULID(b)
}

// encodeULID writes 128 bits as 26 five-bit groups, most significant first.
// The leading group only has 3 significant bits.
func encodeULID(b [16]byte) string {
	hi := binary.BigEndian.Uint64(b[0:8])
	lo := binary.BigEndian.Uint64(b[8:16])

	var out [26]byte
	for i := 25; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}
