// Package memberid generates the short public identifiers of members.
package memberid

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	Length      = 6
	Alphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	MaxAttempts = 50
)

// ExistsFunc reports whether an identifier is already taken.
type ExistsFunc func(ctx context.Context, id string) (bool, error)

// Generator produces identifiers that are unique at generation time.
type Generator struct {
	log         *logrus.Logger
	maxAttempts int
	random      func() (string, error)
	now         func() time.Time
}

func NewGenerator(log *logrus.Logger) *Generator {
	return &Generator{
		log:         log,
		maxAttempts: MaxAttempts,
		random:      Random,
		now:         time.Now,
	}
}

// Generate draws random candidates until exists reports one as free. When
// the check fails or every attempt collides it falls back to a
// clock-derived identifier instead of failing; the unique constraint on the
// column remains the final arbiter.
func (g *Generator) Generate(ctx context.Context, exists ExistsFunc) string {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		candidate, err := g.random()
		if err != nil {
			g.log.Warnf("Failed to draw random member id: %+v", err)
			break
		}

		taken, err := exists(ctx, candidate)
		if err != nil {
			g.log.WithField("attempt", attempt).Warnf("Failed to check member id uniqueness: %+v", err)
			break
		}
		if !taken {
			return candidate
		}
	}

	id := FromTime(g.now())
	g.log.WithField("member_id", id).Warn("Falling back to time-derived member id")
	return id
}

// Random returns a uniformly random identifier.
func Random() (string, error) {
	buf := make([]byte, Length)
	max := big.NewInt(int64(len(Alphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf), nil
}

// FromTime derives an identifier from the nanosecond clock in base 36.
func FromTime(t time.Time) string {
	s := strings.ToUpper(strconv.FormatInt(t.UnixNano(), 36))
	if len(s) >= Length {
		return s[len(s)-Length:]
	}
	return strings.Repeat("0", Length-len(s)) + s
}

// Valid reports whether id has the identifier shape.
func Valid(id string) bool {
	if len(id) != Length {
		return false
	}
	for i := 0; i < len(id); i++ {
		if !strings.ContainsRune(Alphabet, rune(id[i])) {
			return false
		}
	}
	return true
}

// Normalize upper-cases and trims user input before lookup.
func Normalize(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
