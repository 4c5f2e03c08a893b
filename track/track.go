// Package track defines the decoded-sector data model shared by all
// encoding-specific decoders.
package track

import (
	"fmt"
	"sort"
	"strings"
)

// Status is the per-sector decode outcome. Header and data checks are
// independent: a sector can carry a valid header and bad data or the
// reverse, and its bytes are returned either way.
type Status int

const (
	StatusOK Status = iota
	StatusHeaderCRCError
	StatusDataCRCError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusHeaderCRCError:
		return "header-crc-error"
	case StatusDataCRCError:
		return "data-crc-error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// StatusFor derives the status from the two independent checksum outcomes.
// A header failure takes precedence when both fail.
func StatusFor(headerOK, dataOK bool) Status {
	switch {
	case headerOK && dataOK:
		return StatusOK
	case !headerOK:
		return StatusHeaderCRCError
	default:
		return StatusDataCRCError
	}
}

// SectorRecord is one decoded sector.
type SectorRecord struct {
	Cylinder int
	Head     int
	Sector   int
	SizeCode int // sector length is 128 << SizeCode bytes

	Data     []byte
	HeaderOK bool
	DataOK   bool
	Status   Status
}

// Track is the result of decoding one revolution.
type Track struct {
	Cylinder int
	Head     int
	Sectors  []SectorRecord
}

// Sector returns the first record with the given sector number, or nil.
func (t *Track) Sector(n int) *SectorRecord {
	for i := range t.Sectors {
		if t.Sectors[i].Sector == n {
			return &t.Sectors[i]
		}
	}
	return nil
}

// OKCount returns the number of fully valid sectors.
func (t *Track) OKCount() int {
	n := 0
	for i := range t.Sectors {
		if t.Sectors[i].Status == StatusOK {
			n++
		}
	}
	return n
}

// Summary returns a one-line account of the track for diagnostics.
func (t *Track) Summary() string {
	var headerBad, dataBad int
	for i := range t.Sectors {
		switch t.Sectors[i].Status {
		case StatusHeaderCRCError:
			headerBad++
		case StatusDataCRCError:
			dataBad++
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "cyl %d head %d: %d sectors, %d ok", t.Cylinder, t.Head, len(t.Sectors), t.OKCount())
	if headerBad > 0 {
		fmt.Fprintf(&b, ", %d header-crc", headerBad)
	}
	if dataBad > 0 {
		fmt.Fprintf(&b, ", %d data-crc", dataBad)
	}
	return b.String()
}

// statusRank orders decode outcomes for revolution merging: a clean sector
// beats one with a data error, which beats one whose identity itself is
// suspect.
func statusRank(s Status) int {
	switch s {
	case StatusOK:
		return 3
	case StatusDataCRCError:
		return 2
	default:
		return 1
	}
}

// MergeRevolutions combines several decode attempts of the same physical
// track, keeping the best copy of every sector seen in any revolution.
// The result lists sectors in ascending sector order.
func MergeRevolutions(revs []*Track) *Track {
	merged := &Track{}
	best := make(map[int]SectorRecord)
	for _, rev := range revs {
		if rev == nil {
			continue
		}
		merged.Cylinder = rev.Cylinder
		merged.Head = rev.Head
		for _, rec := range rev.Sectors {
			prev, seen := best[rec.Sector]
			if !seen || statusRank(rec.Status) > statusRank(prev.Status) {
				best[rec.Sector] = rec
			}
		}
	}
	for _, rec := range best {
		merged.Sectors = append(merged.Sectors, rec)
	}
	sort.Slice(merged.Sectors, func(i, j int) bool {
		return merged.Sectors[i].Sector < merged.Sectors[j].Sector
	})
	return merged
}
