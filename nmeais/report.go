package nmeais

import (
	"bytes"
	"encoding/json"
)

// PositionReport is the flat output record, one per decoded logical
// message. The struct field order here is the field order in the output.
// Most fields are empty for any given message type; the decoder only
// fills in the ones its type defines.
type PositionReport struct {
	Sentence                 string  `json:"sentence"`
	LandfallTime             string  `json:"landfall_time"`
	Group                    string  `json:"group"`
	SatelliteAcquisitionTime string  `json:"satellite_acquisition_time"`
	Source                   string  `json:"source"`
	Channel                  string  `json:"channel"`
	RawPayload               string  `json:"raw_payload"`
	MessageType              uint8   `json:"message_type"`
	MessageClass             string  `json:"message_class"`
	MMSI                     string  `json:"mmsi"`
	Latitude                 float64 `json:"latitude"`
	Longitude                float64 `json:"longitude"`
	CallSign                 string  `json:"call_sign"`
	Destination              string  `json:"destination"`
	Name                     string  `json:"name"`
	ShipType                 string  `json:"ship_type"`
	ETA                      string  `json:"eta"`
	Draught                  string  `json:"draught"`
	IMO                      string  `json:"imo"`
	CourseOverGround         string  `json:"course_over_ground"`
	PositionAccuracy         string  `json:"position_accuracy"`
	SpeedOverGround          string  `json:"speed_over_ground"`
	NavigationStatus         string  `json:"navigation_status"`
}

// SingleReport builds the record for a standalone sentence.
// Fragments of multi-sentence messages go through GroupAssembler instead.
func SingleReport(s Sentence) *PositionReport {
	return &PositionReport{
		Sentence:                 s.Text,
		LandfallTime:             s.Landfall,
		SatelliteAcquisitionTime: s.SatTime,
		Source:                   s.Source,
		Channel:                  s.Channel,
		RawPayload:               s.Payload,
		MessageClass:             "singleline",
	}
}

// LineWriter serializes reports as single JSON lines.
// It reuses one buffer and is not safe for concurrent use;
// give each goroutine its own.
type LineWriter struct {
	buf bytes.Buffer
	enc *json.Encoder
}

func NewLineWriter() *LineWriter {
	lw := &LineWriter{}
	lw.enc = json.NewEncoder(&lw.buf)
	lw.enc.SetEscapeHTML(false) // payloads contain '<', '>' and '&'
	return lw
}

// Line returns the record as a '\n'-terminated JSON line.
// The returned slice is freshly allocated and safe to send away.
func (lw *LineWriter) Line(r *PositionReport) ([]byte, error) {
	lw.buf.Reset()
	if err := lw.enc.Encode(r); err != nil {
		return nil, err
	}
	return append([]byte(nil), lw.buf.Bytes()...), nil
}
