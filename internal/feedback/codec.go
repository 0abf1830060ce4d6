package feedback

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/roach88/autopar/internal/cost"
	"github.com/roach88/autopar/internal/deps"
	"github.com/roach88/autopar/internal/ir"
)

// magic identifies a feedback file. Never changes across versions; the
// version field immediately after it does.
var magic = [4]byte{'A', 'P', 'F', 'B'}

// Decode-side sanity caps. A well-formed artifact is bounded by program
// size, so anything past these is corrupt, not large.
const (
	maxStringLen = 1 << 20
	maxCount     = 1 << 20
)

// Encode serializes the artifact to its versioned binary form.
//
// Layout (all integers big-endian):
//
//	magic "APFB" | u16 version | str program name
//	u32 candidate count | candidates...
//	u32 extension count | { u16-prefixed tag | u32-prefixed payload }...
//
// where str is a u32 length prefix plus UTF-8 bytes, and each candidate is:
//
//	str conj id | str pos file | u32 pos line
//	u32 first | u32 last | u8 has-site [ str module | str proc | u32 index ]
//	f64 sequential | f64 parallel | f64 speedup
//	u32 goal count | { u32 index | u64 calls | f64 cost }...
//	u32 edge count | { u32 producer | u32 consumer | str variable }...
//
// Encode validates the artifact first; an invariant-violating artifact is
// refused rather than written.
func Encode(a *Artifact) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("encode feedback: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(magic[:])
	putU16(&buf, a.Version)
	putString(&buf, a.ProgramName)

	putU32(&buf, uint32(len(a.Candidates)))
	for i := range a.Candidates {
		encodeCandidate(&buf, &a.Candidates[i])
	}

	putU32(&buf, uint32(len(a.Extensions)))
	for i := range a.Extensions {
		ext := &a.Extensions[i]
		putU16(&buf, uint16(len(ext.Tag)))
		buf.WriteString(ext.Tag)
		putU32(&buf, uint32(len(ext.Payload)))
		buf.Write(ext.Payload)
	}

	return buf.Bytes(), nil
}

func encodeCandidate(buf *bytes.Buffer, c *Candidate) {
	putString(buf, c.ConjID)
	putString(buf, c.Pos.File)
	putU32(buf, uint32(c.Pos.Line))
	putU32(buf, uint32(c.First))
	putU32(buf, uint32(c.Last))

	if c.PrimarySite != nil {
		buf.WriteByte(1)
		putString(buf, c.PrimarySite.Module)
		putString(buf, c.PrimarySite.Procedure)
		putU32(buf, uint32(c.PrimarySite.Index))
	} else {
		buf.WriteByte(0)
	}

	putF64(buf, c.SequentialCost)
	putF64(buf, c.ParallelCost)
	putF64(buf, c.Speedup)

	putU32(buf, uint32(len(c.PerGoal)))
	for _, g := range c.PerGoal {
		putU32(buf, uint32(g.Index))
		putU64(buf, uint64(g.Calls))
		putF64(buf, g.Cost)
	}

	putU32(buf, uint32(len(c.Edges)))
	for _, e := range c.Edges {
		putU32(buf, uint32(e.Producer))
		putU32(buf, uint32(e.Consumer))
		putString(buf, e.Variable)
	}
}

// Decode parses a feedback artifact from bytes.
//
// The version gate runs before anything else: bytes claiming an unsupported
// version yield VersionMismatchError even if the rest is garbage. All other
// failures are CorruptFeedbackError carrying the offset of the first
// violation. Trailing bytes after the extension block are a violation.
func Decode(data []byte) (*Artifact, error) {
	r := &reader{data: data}

	var m [4]byte
	if err := r.bytes(m[:]); err != nil {
		return nil, err
	}
	if m != magic {
		return nil, r.corrupt("bad magic %q", m)
	}

	version, err := r.u16()
	if err != nil {
		return nil, err
	}
	if version < MinVersion || version > MaxVersion {
		return nil, &VersionMismatchError{Found: version, Min: MinVersion, Max: MaxVersion}
	}

	a := &Artifact{Version: version}
	if a.ProgramName, err = r.str(); err != nil {
		return nil, err
	}

	count, err := r.count("candidate count")
	if err != nil {
		return nil, err
	}
	for i := 0; i < count; i++ {
		c, err := decodeCandidate(r)
		if err != nil {
			return nil, err
		}
		if err := c.validate(); err != nil {
			return nil, r.corrupt("candidate %d: %v", i, err)
		}
		a.Candidates = append(a.Candidates, c)
	}

	extCount, err := r.count("extension count")
	if err != nil {
		return nil, err
	}
	for i := 0; i < extCount; i++ {
		tagLen, err := r.u16()
		if err != nil {
			return nil, err
		}
		tag := make([]byte, tagLen)
		if err := r.bytes(tag); err != nil {
			return nil, err
		}
		payloadLen, err := r.u32()
		if err != nil {
			return nil, err
		}
		if payloadLen > maxStringLen {
			return nil, r.corrupt("extension %q payload length %d exceeds limit", tag, payloadLen)
		}
		payload := make([]byte, payloadLen)
		if err := r.bytes(payload); err != nil {
			return nil, err
		}
		a.Extensions = append(a.Extensions, Extension{Tag: string(tag), Payload: payload})
	}

	if r.off != int64(len(data)) {
		return nil, r.corrupt("%d trailing bytes after extension block", int64(len(data))-r.off)
	}
	return a, nil
}

func decodeCandidate(r *reader) (Candidate, error) {
	var c Candidate
	var err error

	if c.ConjID, err = r.str(); err != nil {
		return c, err
	}
	if c.Pos.File, err = r.str(); err != nil {
		return c, err
	}
	line, err := r.u32()
	if err != nil {
		return c, err
	}
	c.Pos.Line = int(line)

	first, err := r.u32()
	if err != nil {
		return c, err
	}
	last, err := r.u32()
	if err != nil {
		return c, err
	}
	c.First, c.Last = int(first), int(last)

	hasSite, err := r.u8()
	if err != nil {
		return c, err
	}
	switch hasSite {
	case 0:
	case 1:
		var cs ir.CallSiteID
		if cs.Module, err = r.str(); err != nil {
			return c, err
		}
		if cs.Procedure, err = r.str(); err != nil {
			return c, err
		}
		idx, err := r.u32()
		if err != nil {
			return c, err
		}
		cs.Index = int(idx)
		c.PrimarySite = &cs
	default:
		return c, r.corrupt("call-site flag %d is neither 0 nor 1", hasSite)
	}

	if c.SequentialCost, err = r.f64(); err != nil {
		return c, err
	}
	if c.ParallelCost, err = r.f64(); err != nil {
		return c, err
	}
	if c.Speedup, err = r.f64(); err != nil {
		return c, err
	}

	goals, err := r.count("goal count")
	if err != nil {
		return c, err
	}
	for i := 0; i < goals; i++ {
		var g cost.GoalCost
		idx, err := r.u32()
		if err != nil {
			return c, err
		}
		g.Index = int(idx)
		calls, err := r.u64()
		if err != nil {
			return c, err
		}
		if calls > math.MaxInt64 {
			return c, r.corrupt("goal %d call count %d overflows", g.Index, calls)
		}
		g.Calls = int64(calls)
		if g.Cost, err = r.f64(); err != nil {
			return c, err
		}
		c.PerGoal = append(c.PerGoal, g)
	}

	edges, err := r.count("edge count")
	if err != nil {
		return c, err
	}
	for i := 0; i < edges; i++ {
		var e deps.Edge
		p, err := r.u32()
		if err != nil {
			return c, err
		}
		cons, err := r.u32()
		if err != nil {
			return c, err
		}
		e.Producer, e.Consumer = int(p), int(cons)
		if e.Variable, err = r.str(); err != nil {
			return c, err
		}
		c.Edges = append(c.Edges, e)
	}

	return c, nil
}

// reader tracks the decode offset so corruption errors can point at the
// first violated byte.
type reader struct {
	data []byte
	off  int64
}

func (r *reader) corrupt(format string, args ...any) error {
	return &CorruptFeedbackError{Reason: fmt.Sprintf(format, args...), Offset: r.off}
}

func (r *reader) bytes(dst []byte) error {
	if int64(len(r.data))-r.off < int64(len(dst)) {
		return r.corrupt("truncated: need %d bytes, have %d", len(dst), int64(len(r.data))-r.off)
	}
	copy(dst, r.data[r.off:])
	r.off += int64(len(dst))
	return nil
}

func (r *reader) u8() (byte, error) {
	var b [1]byte
	if err := r.bytes(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u16() (uint16, error) {
	var b [2]byte
	if err := r.bytes(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func (r *reader) u32() (uint32, error) {
	var b [4]byte
	if err := r.bytes(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func (r *reader) u64() (uint64, error) {
	var b [8]byte
	if err := r.bytes(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func (r *reader) f64() (float64, error) {
	bits, err := r.u64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

func (r *reader) str() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	if n > maxStringLen {
		return "", r.corrupt("string length %d exceeds limit", n)
	}
	b := make([]byte, n)
	if err := r.bytes(b); err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) count(what string) (int, error) {
	n, err := r.u32()
	if err != nil {
		return 0, err
	}
	if n > maxCount {
		return 0, r.corrupt("%s %d exceeds limit", what, n)
	}
	return int(n), nil
}

func putU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func putF64(buf *bytes.Buffer, v float64) {
	putU64(buf, math.Float64bits(v))
}

func putString(buf *bytes.Buffer, s string) {
	putU32(buf, uint32(len(s)))
	buf.WriteString(s)
}
