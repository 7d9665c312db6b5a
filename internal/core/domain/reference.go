package domain

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"
	"strings"
	"time"
)

// refSuffixSpace is 36^6, the number of distinct 6-character base36 suffixes.
const refSuffixSpace = 2176782336

// GenerateReference returns a human-legible transaction reference of the
// form REF-<base36 millisecond timestamp>-<6 random base36 chars>, all
// uppercase. Uniqueness is probabilistic; the transactions table carries a
// unique constraint and a collision surfaces as a retryable internal error.
func GenerateReference() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing means the process is in serious trouble;
		// fall back to the clock rather than panic mid-operation.
		binary.BigEndian.PutUint64(buf[:], uint64(time.Now().UnixNano()))
	}
	n := binary.BigEndian.Uint64(buf[:]) % refSuffixSpace
	suffix := strings.ToUpper(strconv.FormatUint(n, 36))
	if len(suffix) < 6 {
		suffix = strings.Repeat("0", 6-len(suffix)) + suffix
	}

	return "REF-" + ts + "-" + suffix
}
