package nmeais

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frag(group string, parts, index uint8, payload string) Sentence {
	return Sentence{
		Group:     group,
		Parts:     parts,
		PartIndex: index,
		Payload:   payload,
		Text:      "line " + group + " " + payload,
	}
}

func TestAssembleInOrder(t *testing.T) {
	ga := NewGroupAssembler()
	assert.Nil(t, ga.Accept(frag("1-2-6056", 2, 1, "AAAA")))
	r := ga.Accept(frag("2-2-6056", 2, 2, "BB"))
	require.NotNil(t, r)
	assert.Equal(t, "multiline", r.MessageClass)
	assert.Equal(t, "1-2-6056", r.Group, "the group is fragment 1's g: tag")
	assert.Equal(t, "AAAABB", r.RawPayload)
	assert.Equal(t, "line 1-2-6056 AAAA\nline 2-2-6056 BB", r.Sentence)
	assert.Equal(t, 0, ga.IncompleteGroups())
}

func TestAssembleOutOfOrder(t *testing.T) {
	ga := NewGroupAssembler()
	assert.Nil(t, ga.Accept(frag("2-2-7000", 2, 2, "BB")))
	r := ga.Accept(frag("1-2-7000", 2, 1, "AAAA"))
	require.NotNil(t, r)
	assert.Equal(t, "AAAABB", r.RawPayload, "payloads concatenate in index order, not arrival order")
	assert.Equal(t, "1-2-7000", r.Group)
}

func TestAssembleThreeParts(t *testing.T) {
	ga := NewGroupAssembler()
	assert.Nil(t, ga.Accept(frag("3-3-1", 3, 3, "CC")))
	assert.Nil(t, ga.Accept(frag("1-3-1", 3, 1, "AA")))
	r := ga.Accept(frag("2-3-1", 3, 2, "BB"))
	require.NotNil(t, r)
	assert.Equal(t, "AABBCC", r.RawPayload)
}

func TestAssembleMissingFragment(t *testing.T) {
	ga := NewGroupAssembler()
	assert.Nil(t, ga.Accept(frag("1-2-6056", 2, 1, "AAAA")))
	assert.Equal(t, 1, ga.IncompleteGroups())
}

func TestAssembleInterleavedGroups(t *testing.T) {
	ga := NewGroupAssembler()
	assert.Nil(t, ga.Accept(frag("1-2-10", 2, 1, "AA")))
	assert.Nil(t, ga.Accept(frag("1-2-11", 2, 1, "XX")))
	r := ga.Accept(frag("2-2-11", 2, 2, "YY"))
	require.NotNil(t, r)
	assert.Equal(t, "XXYY", r.RawPayload)
	r = ga.Accept(frag("2-2-10", 2, 2, "BB"))
	require.NotNil(t, r)
	assert.Equal(t, "AABB", r.RawPayload)
	assert.Equal(t, 0, ga.IncompleteGroups())
}

func TestAssembleDuplicateReplaces(t *testing.T) {
	ga := NewGroupAssembler()
	assert.Nil(t, ga.Accept(frag("1-2-5", 2, 1, "OLD1")))
	assert.Nil(t, ga.Accept(frag("1-2-5", 2, 1, "NEW1")))
	r := ga.Accept(frag("2-2-5", 2, 2, "TAIL"))
	require.NotNil(t, r)
	assert.Equal(t, "NEW1TAIL", r.RawPayload, "re-arrival is last-writer-wins")
}

func TestAssembleCountMismatchRestarts(t *testing.T) {
	ga := NewGroupAssembler()
	assert.Nil(t, ga.Accept(frag("", 2, 1, "AA")))
	// untagged fragments with equal SMID and channel share a key;
	// same key, different fragment count: the old entry is unusable
	assert.Nil(t, ga.Accept(frag("", 3, 1, "XX")))
	assert.Nil(t, ga.Accept(frag("", 3, 2, "YY")))
	r := ga.Accept(frag("", 3, 3, "ZZ"))
	require.NotNil(t, r)
	assert.Equal(t, "XXYYZZ", r.RawPayload)
}

func TestAssembleMetadataFromLowestFragment(t *testing.T) {
	first := frag("1-2-9", 2, 1, "AA")
	first.Source = "VENDOR"
	first.SatTime = "1569890555"
	first.Landfall = "1569890647"
	first.Channel = "A"
	second := frag("2-2-9", 2, 2, "BB")
	second.Source = "OTHER"
	second.Landfall = "1569890999"

	for name, order := range map[string][2]Sentence{
		"in order":     {first, second},
		"out of order": {second, first},
	} {
		ga := NewGroupAssembler()
		assert.Nil(t, ga.Accept(order[0]), name)
		r := ga.Accept(order[1])
		require.NotNil(t, r, name)
		assert.Equal(t, "VENDOR", r.Source, name)
		assert.Equal(t, "1569890555", r.SatelliteAcquisitionTime, name)
		assert.Equal(t, "1569890647", r.LandfallTime, name)
		assert.Equal(t, "A", r.Channel, name)
	}
}

func TestAssembleRealFragments(t *testing.T) {
	one, err := ParseSentence([]byte(typeFiveFirst))
	require.NoError(t, err)
	two, err := ParseSentence([]byte(typeFiveLast))
	require.NoError(t, err)

	ga := NewGroupAssembler()
	assert.Nil(t, ga.Accept(one))
	r := ga.Accept(two)
	require.NotNil(t, r)
	assert.Equal(t, "1-2-6056", r.Group)
	assert.Equal(t, one.Payload+two.Payload, r.RawPayload)
	assert.Equal(t, typeFiveFirst+"\n"+typeFiveLast, r.Sentence)
	assert.Equal(t, "VENDOR", r.Source)
	assert.Equal(t, "1569890555", r.SatelliteAcquisitionTime)

	Decode(r)
	assert.Equal(t, uint8(5), r.MessageType)
	assert.Regexp(t, "^[0-9]+$", r.MMSI)
	assert.NotEmpty(t, r.Name)
	assert.NotEmpty(t, r.CallSign)
}
