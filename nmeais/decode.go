package nmeais

import (
	"fmt"
	"strconv"
)

const coordScale = 600000.0 // AIS coordinates are in 1/10000 minutes

// Decode fills in the payload-derived fields of r.
// It never fails: reads past the end of a short payload yield zero bits,
// and unrecognized message types leave everything but MessageType empty.
func Decode(r *PositionReport) {
	b := DeArmor(r.RawPayload)
	r.MessageType = uint8(b.Uint(0, 6))
	switch r.MessageType {
	case 1, 2, 3: // class A position report
		decodeClassAPosition(r, b)
	case 5: // class A static and voyage related data
		decodeStaticVoyage(r, b)
	case 18: // basic class B position report
		decodeClassBPosition(r, b)
	case 19: // extended class B position report
		decodeClassBPosition(r, b)
		r.Name = b.Text(143, 120)
		r.ShipType = strconv.FormatUint(b.Uint(263, 8), 10)
	}
}

func decodeClassAPosition(r *PositionReport, b PayloadBits) {
	r.MMSI = strconv.FormatUint(b.Uint(8, 30), 10)
	r.NavigationStatus = strconv.FormatUint(b.Uint(38, 4), 10)
	r.SpeedOverGround = strconv.FormatUint(b.Uint(50, 10), 10)
	r.PositionAccuracy = strconv.FormatUint(b.Uint(60, 1), 10)
	r.Longitude = float64(b.Int(61, 28)) / coordScale
	r.Latitude = float64(b.Int(89, 27)) / coordScale
	r.CourseOverGround = strconv.FormatUint(b.Uint(116, 12), 10)
}

func decodeStaticVoyage(r *PositionReport, b PayloadBits) {
	r.MMSI = strconv.FormatUint(b.Uint(8, 30), 10)
	r.IMO = strconv.FormatUint(b.Uint(40, 30), 10)
	r.CallSign = b.Text(70, 42)
	r.Name = b.Text(112, 120)
	r.ShipType = strconv.FormatUint(b.Uint(232, 8), 10)
	r.ETA = fmt.Sprintf("%02d-%02d %02d:%02d",
		b.Uint(274, 4), b.Uint(278, 5), b.Uint(283, 5), b.Uint(288, 6))
	r.Draught = strconv.FormatUint(b.Uint(294, 8), 10)
	r.Destination = b.Text(302, 120)
}

// shared between type 18 and the kinetic half of type 19
func decodeClassBPosition(r *PositionReport, b PayloadBits) {
	r.MMSI = strconv.FormatUint(b.Uint(8, 30), 10)
	r.SpeedOverGround = strconv.FormatUint(b.Uint(46, 10), 10)
	r.PositionAccuracy = strconv.FormatUint(b.Uint(56, 1), 10)
	r.Longitude = float64(b.Int(57, 28)) / coordScale
	r.Latitude = float64(b.Int(85, 27)) / coordScale
	r.CourseOverGround = strconv.FormatUint(b.Uint(112, 12), 10)
}
