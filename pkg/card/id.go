package card

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID returns a client-side identifier: base36 millisecond timestamp plus a
// random suffix, so IDs sort roughly by creation time and never collide in
// practice. No uniqueness is enforced; callers that need hard guarantees
// should deduplicate at the store.
func NewID(prefix string) string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	suffix := randomSuffix(6)

	var b strings.Builder
	b.Grow(len(prefix) + len(ts) + len(suffix) + 2)
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteByte('-')
	}
	b.WriteString(ts)
	b.WriteByte('-')
	b.WriteString(suffix)
	return b.String()
}

func randomSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic("card: read random: " + err.Error())
	}
	for i, c := range buf {
		buf[i] = idAlphabet[int(c)%len(idAlphabet)]
	}
	return string(buf)
}
