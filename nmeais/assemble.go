package nmeais

import "strings"

// GroupAssembler pairs up fragments of multi-sentence messages by group
// id and emits one record when the last fragment of a group arrives.
// It is single-owner state: each instance must only be used from one
// goroutine, and fragments must be routed so that all fragments of a
// group reach the same instance.
type GroupAssembler struct {
	incomplete map[string]*incompleteGroup
}

// An incomplete message with a certain group key.
// The key itself is not stored because it's the key and this is the value.
type incompleteGroup struct {
	parts []Sentence // slot per fragment; index 0 holds fragment 1
	seen  uint16     // bit field: bit n set when fragment n+1 has arrived
}

func NewGroupAssembler() *GroupAssembler {
	return &GroupAssembler{
		incomplete: make(map[string]*incompleteGroup),
	}
}

// Accept stores one fragment and returns the completed record if it was
// the last missing one, or nil.
// Re-arrival of a (group, index) pair replaces the earlier fragment.
// A fragment count that disagrees with the cached entry restarts the
// group with just the new fragment.
func (ga *GroupAssembler) Accept(s Sentence) *PositionReport {
	key := s.GroupKey()
	e := ga.incomplete[key]
	if e == nil || len(e.parts) != int(s.Parts) {
		e = &incompleteGroup{parts: make([]Sentence, s.Parts)}
		ga.incomplete[key] = e
	}
	e.parts[s.PartIndex-1] = s
	e.seen |= 1 << (s.PartIndex - 1)
	if e.seen != 1<<uint(len(e.parts))-1 {
		return nil
	}
	delete(ga.incomplete, key)
	return e.assemble()
}

// assemble concatenates payloads and original lines in fragment order.
// Each envelope field is taken from the lowest-indexed fragment carrying
// it, so the record doesn't depend on arrival order.
func (e *incompleteGroup) assemble() *PositionReport {
	r := &PositionReport{
		MessageClass: "multiline",
		Group:        e.parts[0].Group,
	}
	payload := ""
	lines := make([]string, len(e.parts))
	for i := range e.parts {
		payload += e.parts[i].Payload
		lines[i] = e.parts[i].Text
		if r.LandfallTime == "" {
			r.LandfallTime = e.parts[i].Landfall
		}
		if r.Source == "" {
			r.Source = e.parts[i].Source
		}
		if r.SatelliteAcquisitionTime == "" {
			r.SatelliteAcquisitionTime = e.parts[i].SatTime
		}
		if r.Channel == "" {
			r.Channel = e.parts[i].Channel
		}
	}
	r.RawPayload = payload
	r.Sentence = strings.Join(lines, "\n")
	return r
}

// IncompleteGroups is the number of groups still waiting for fragments.
// Call it after the input is exhausted; the leftover entries are simply
// dropped with the assembler.
func (ga *GroupAssembler) IncompleteGroups() int {
	return len(ga.incomplete)
}
