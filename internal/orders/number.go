package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	orderNumberPrefix = "JE"
	suffixLength      = 4
	base36Chars       = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// GenerateOrderNumber produces `JE-<base36 ms timestamp>-<4-char base36
// random>`. The random suffix keeps two calls within the same
// millisecond distinct.
func GenerateOrderNumber(now time.Time) (string, error) {
	ts := strconv.FormatInt(now.UnixMilli(), 36)
	suffix, err := randomBase36(suffixLength)
	if err != nil {
		return "", fmt.Errorf("generating order suffix: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s", orderNumberPrefix, ts, suffix), nil
}

func randomBase36(length int) (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(base36Chars)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(base36Chars[n.Int64()])
	}
	return b.String(), nil
}
