// Package nmeais parses satellite-collected NMEA 0183 AIS sentences,
// reassembles multi-sentence messages and decodes the payload fields
// that matter for position tracking.
package nmeais

import (
	"fmt"
	"strconv"
	"strings"

	ais "github.com/andmarios/aislib"
)

// Sentence contains the values parsed from one input line: the station
// tag block metadata and the AIVDM body. Parts and PartIndex decide
// whether it is a complete message on its own or one fragment of a group.
type Sentence struct {
	Landfall  string // unix-seconds prefix before the first '\', or ""
	Source    string // s: tag
	SatTime   string // c: tag
	Group     string // g: tag, verbatim "x-y-id", or ""
	SMID      string // sequential message id field, often empty
	Channel   string // "A" or "B" after normalization, or ""
	Parts     uint8  // starts at 1
	PartIndex uint8  // 1-based
	Payload   string // six-bit ASCII armored
	// The sentence checksum result. Informational: a failing checksum
	// doesn't stop the sentence from being used, callers just count it.
	ChecksumPassed bool
	Text           string // the whole line as read, without the newline
}

// ParseSentence extracts the fields out of an assumed satellite-tagged
// AIS-containing line of one of the forms
//
//	<landfall>\<tag>,<tag>,...*hh\!AIVDM,...
//	\<tag>,...*hh\!AIVDM,...
//	!AIVDM,...
//
// It does the minimum validation for the sentence to be useful:
// malformed tags are skipped, checksums are evaluated but never enforced,
// only a structurally broken AIVDM body is an error.
func ParseSentence(line []byte) (Sentence, error) {
	s := Sentence{Text: string(line), ChecksumPassed: true}
	rest := s.Text
	if len(rest) == 0 {
		return s, fmt.Errorf("empty line")
	}
	if rest[0] != '!' {
		bs := strings.IndexByte(rest, '\\')
		if bs == -1 {
			return s, fmt.Errorf("no tag block and no AIVDM body")
		}
		if _, err := strconv.ParseUint(rest[:bs], 10, 64); err == nil {
			s.Landfall = rest[:bs]
		}
		rest = rest[bs+1:]
		end := strings.IndexByte(rest, '\\')
		if end == -1 {
			return s, fmt.Errorf("unterminated tag block")
		}
		tags := rest[:end]
		if star := strings.IndexByte(tags, '*'); star != -1 {
			tags = tags[:star] // tag block checksum, not verified
		}
		for len(tags) != 0 {
			tag := tags
			if comma := strings.IndexByte(tags, ','); comma != -1 {
				tag, tags = tags[:comma], tags[comma+1:]
			} else {
				tags = ""
			}
			colon := strings.IndexByte(tag, ':')
			if colon < 1 {
				continue // not a key:value tag, skip it
			}
			switch tag[:colon] {
			case "s":
				s.Source = tag[colon+1:]
			case "c":
				s.SatTime = tag[colon+1:]
			case "g":
				s.Group = tag[colon+1:]
			}
		}
		rest = rest[end+1:]
	}
	if len(rest) == 0 || rest[0] != '!' {
		return s, fmt.Errorf("tag block not followed by '!'")
	}

	f := strings.Split(rest, ",")
	if len(f) < 7 {
		return s, fmt.Errorf("AIVDM body has %d fields, expected 7", len(f))
	}
	parts, err := strconv.ParseUint(f[1], 10, 8)
	if err != nil || parts == 0 || parts > 9 {
		return s, fmt.Errorf("fragment count is %q", f[1])
	}
	index, err := strconv.ParseUint(f[2], 10, 8)
	if err != nil || index == 0 || index > parts {
		return s, fmt.Errorf("fragment index is %q of %d", f[2], parts)
	}
	s.Parts = uint8(parts)
	s.PartIndex = uint8(index)
	s.SMID = f[3]
	s.Channel = f[4]
	switch s.Channel { // the radio channel is sometimes written as 1/2
	case "1":
		s.Channel = "A"
	case "2":
		s.Channel = "B"
	}
	s.Payload = f[5]
	if star := strings.LastIndexByte(rest, '*'); star != -1 && len(rest)-star == 3 {
		s.ChecksumPassed = ais.Nmea183ChecksumCheck(rest)
	}
	return s, nil
}

// GroupKey is the reassembly key for a fragment: the g: tag with the
// per-fragment leading index stripped, so all fragments of a group
// collide. Multi-part sentences without a g: tag fall back to the
// sequential message id and channel.
func (s Sentence) GroupKey() string {
	if s.Group != "" {
		if i := strings.IndexByte(s.Group, '-'); i != -1 {
			return s.Group[i+1:]
		}
		return s.Group
	}
	return "smid," + s.SMID + "," + s.Channel
}
