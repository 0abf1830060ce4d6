package ir

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainProfile  = "autopar/profile/v1"
	DomainCallSite = "autopar/callsite/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CallSiteHash computes the content-addressed ID of a call site from its
// canonical path. Stable across runs and builds given the same site.
func CallSiteHash(cs CallSiteID) string {
	return hashWithDomain(DomainCallSite, []byte(CanonicalPath(cs)))
}

// ProfileHash computes a content-addressed ID for a program's static
// structure: its name plus every conjunction's ID, entry count, and goal
// call-site paths, in program order. Two collector databases describing the
// same program structure hash identically; measurements do not participate,
// so re-profiling the same binary keeps the hash stable.
func ProfileHash(p *Program) string {
	h := sha256.New()
	h.Write([]byte(DomainProfile))
	h.Write([]byte{0x00})
	writeString(h, norm.NFC.String(p.Name))
	for i := range p.Conjunctions {
		c := &p.Conjunctions[i]
		writeString(h, c.ID)
		writeInt64(h, c.EntryCount)
		for j := range c.Goals {
			hashGoal(h, &c.Goals[j])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

type byteWriter interface {
	Write(p []byte) (int, error)
}

func hashGoal(h byteWriter, g *Goal) {
	writeInt64(h, int64(g.Kind))
	if g.CallSite != nil {
		writeString(h, CanonicalPath(*g.CallSite))
	} else {
		writeString(h, "")
	}
	for _, v := range g.Consumes {
		writeString(h, v)
	}
	h.Write([]byte{0x00})
	for _, v := range g.Produces {
		writeString(h, v)
	}
	h.Write([]byte{0x00})
	for i := range g.Inner {
		hashGoal(h, &g.Inner[i])
	}
	h.Write([]byte{0x00})
}

// writeString writes a length-prefixed string so that adjacent fields can
// never be confused for one another.
func writeString(h byteWriter, s string) {
	writeInt64(h, int64(len(s)))
	h.Write([]byte(s))
}

func writeInt64(h byteWriter, v int64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	h.Write(buf[:])
}
