package mastery

// Band is a coarse mastery bucket used by the dashboard distribution.
type Band string

const (
	BandBeginning  Band = "0.0-0.5"
	BandDeveloping Band = "1.0-1.5"
	BandProficient Band = "2.0-2.5"
	BandMastered   Band = "3.0"
)

// Bands lists every band in ascending order.
var Bands = []Band{BandBeginning, BandDeveloping, BandProficient, BandMastered}

// BandOf maps a level to exactly one band. Upper bounds are inclusive, so
// 0.5, 1.5 and 2.5 belong to the lower band.
func BandOf(level float64) Band {
	switch {
	case level <= 0.5:
		return BandBeginning
	case level <= 1.5:
		return BandDeveloping
	case level <= 2.5:
		return BandProficient
	default:
		return BandMastered
	}
}
