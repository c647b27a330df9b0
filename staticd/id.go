package staticd

import (
	"crypto/rand"
	"encoding/hex"
	"sync/atomic"
	"time"
)

var connSeq atomic.Uint64

// genConnID returns a short random ID for log correlation.
func genConnID() string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err == nil {
		return hex.EncodeToString(b[:])
	}
	// Fallback to timestamp plus sequence if rand fails (unlikely)
	t := uint64(time.Now().UnixNano()) ^ connSeq.Add(1)<<40
	for i := range b {
		b[i] = byte(t >> (uint(i) * 8))
	}
	return hex.EncodeToString(b[:])
}
