package memo

import (
	"encoding/binary"
	"hash"
	"math"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/okian/fixturedensity/internal/domain/model"
)

// KeyParts identify one candidate evaluation.
type KeyParts struct {
	EventsHash   uint64
	CandidateKey string
	Bounds       *model.Bounds
	Anchor       *model.LatLng
	RadiusKm     float64
	Timezone     string
	Margin       time.Duration
	Window       model.TimeWindow // decision window the candidate was scoped in
}

// Key hashes the parts into a cache key.
func Key(p KeyParts) uint64 {
	h := murmur3.New64()
	writeUint(h, p.EventsHash)
	writeString(h, p.CandidateKey)
	writeUint(h, BoundsHash(p.Bounds))
	writeUint(h, AnchorHash(p.Anchor))
	writeFloat(h, p.RadiusKm)
	writeString(h, p.Timezone)
	writeUint(h, uint64(p.Margin))
	writeUint(h, uint64(p.Window.Start.UnixNano()))
	writeUint(h, uint64(p.Window.End.UnixNano()))
	return h.Sum64()
}

// EventsHash fingerprints a normalized event list. Order matters.
func EventsHash(events []model.Event) uint64 {
	h := murmur3.New64()
	writeUint(h, uint64(len(events)))
	for _, ev := range events {
		writeString(h, ev.ID)
		writeUint(h, uint64(ev.Start.UnixNano()))
		writeUint(h, uint64(ev.End.UnixNano()))
		writeString(h, ev.Venue)
		if ev.Location != nil {
			writeFloat(h, ev.Location.Lat)
			writeFloat(h, ev.Location.Lng)
		} else {
			writeString(h, "-")
		}
	}
	return h.Sum64()
}

// BoundsHash fingerprints optional bounds; nil hashes to 0.
func BoundsHash(b *model.Bounds) uint64 {
	if b == nil {
		return 0
	}
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[0:], math.Float64bits(b.North))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(b.South))
	binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(b.East))
	binary.LittleEndian.PutUint64(buf[24:], math.Float64bits(b.West))
	return murmur3.Sum64(buf[:])
}

// AnchorHash fingerprints an optional anchor; nil hashes to 0.
func AnchorHash(a *model.LatLng) uint64 {
	if a == nil {
		return 0
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:], math.Float64bits(a.Lat))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(a.Lng))
	return murmur3.Sum64(buf[:])
}

func writeUint(h hash.Hash64, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

func writeFloat(h hash.Hash64, v float64) {
	writeUint(h, math.Float64bits(v))
}

// writeString is length-prefixed so adjacent fields cannot alias.
func writeString(h hash.Hash64, s string) {
	writeUint(h, uint64(len(s)))
	_, _ = h.Write([]byte(s))
}
