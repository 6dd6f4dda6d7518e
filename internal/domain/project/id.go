package project

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

const (
	idSuffixLen = 6
	base36      = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// NewID returns a time-prefixed id: the current epoch millis in base 36
// followed by six random base-36 characters.
func NewID() string {
	buf := []byte(strconv.FormatInt(time.Now().UnixMilli(), 36))
	limit := big.NewInt(int64(len(base36)))
	for i := 0; i < idSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic(err)
		}
		buf = append(buf, base36[n.Int64()])
	}
	return string(buf)
}
