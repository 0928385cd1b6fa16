package pcapng

import (
	"math"
	"time"
)

// tsCalc converts a raw interface timestamp tick count into a time.Time,
// given the declaring interface's if_tsresol and if_tsoffset options.
//
// tsresol's high bit selects the resolution family: clear means ts counts
// in units of 10^-tsresol seconds (tsresol itself, 0-127); set means ts
// counts in units of 2^-(tsresol&0x7f) seconds. tsoffset is a signed
// number of seconds added to the tick count's own whole-seconds component
// before nanosecond conversion, saturating at the range of a 64-bit tick
// count rather than wrapping, so a pathological offset can't turn a valid
// late timestamp into a bogus early one or vice versa.
func tsCalc(ts uint64, tsresol uint8, tsoffset int64) time.Time {
	var secs, nanos uint64
	if tsresol&0x80 == 0 {
		mag := uint64(1)
		for i := uint8(0); i < tsresol; i++ {
			mag *= 10
		}
		secs = ts / mag
		nanos = (ts - secs*mag) * 1_000_000_000 / mag
	} else {
		res := tsresol & 0x7f
		secs = ts >> res
		frac := ts &^ (^uint64(0) << res)
		nanos = frac * 1_000_000_000 / (uint64(1) << res)
	}

	if tsoffset < 0 {
		neg := uint64(-tsoffset)
		if neg > secs {
			secs = 0
		} else {
			secs -= neg
		}
	} else {
		before := secs
		secs += uint64(tsoffset)
		if secs < before {
			secs = math.MaxUint64
		}
	}

	if secs > math.MaxInt64 {
		secs = math.MaxInt64
	}
	return time.Unix(int64(secs), int64(nanos)).UTC()
}

// tsEncode is the inverse scaling Writer/Recorder use when emitting an
// Enhanced Packet Block: it expresses ts (in the UTC epoch) as raw tick
// counts relative to tsoffset seconds, at nanosecond resolution (the
// resolution this package's Writer always declares via if_tsresol=9).
func tsEncode(ts time.Time, tsoffset int64) uint64 {
	secs := ts.Unix() - tsoffset
	if secs < 0 {
		secs = 0
	}
	return uint64(secs)*1_000_000_000 + uint64(ts.Nanosecond())
}
