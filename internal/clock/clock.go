// Package clock supplies time and human-readable identifiers so services
// stay deterministic under test.
package clock

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Clock yields the current time.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in UTC.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed always returns the same instant. Test helper.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }

// TokenSource issues patient tokens and bill numbers. Both embed a
// millisecond timestamp and a random component so uniqueness holds by
// construction, without a store round-trip.
type TokenSource interface {
	PatientToken() string
	BillNumber() string
}

// Generator is the production TokenSource.
type Generator struct {
	clock Clock
}

func NewGenerator(c Clock) *Generator {
	if c == nil {
		c = System{}
	}
	return &Generator{clock: c}
}

// PatientToken returns a front-desk token like TKN-1724932800123-9F3A2C.
func (g *Generator) PatientToken() string {
	return g.stamp("TKN")
}

// BillNumber returns a bill number like BILL-1724932800123-4B81D0.
func (g *Generator) BillNumber() string {
	return g.stamp("BILL")
}

func (g *Generator) stamp(prefix string) string {
	id := uuid.NewString()
	suffix := strings.ToUpper(strings.ReplaceAll(id, "-", "")[:6])
	return fmt.Sprintf("%s-%d-%s", prefix, g.clock.Now().UnixMilli(), suffix)
}
