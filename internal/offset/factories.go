package offset

import "fmt"

// Default sky position for the two-position patterns, in arcsec.
const (
	DefaultSkyDX = 10.0
	DefaultSkyDY = 10.0
)

// Position names used by the built-in patterns.
const (
	PosBase = "base"
	PosStar = "star"
	PosSky  = "sky"
)

func star() TelescopeOffset {
	return TelescopeOffset{Frame: SkyFrame{}, PosName: PosStar, Guide: true}
}

func sky(dx, dy float64) TelescopeOffset {
	return TelescopeOffset{DX: dx, DY: dy, Frame: SkyFrame{}, PosName: PosSky, Guide: false}
}

func buildPattern(name string, repeat int, offsets ...TelescopeOffset) (Pattern, error) {
	p, err := NewPattern(name, repeat, offsets...)
	if err != nil {
		return Pattern{}, fmt.Errorf("%s: %w", name, err)
	}
	return p, nil
}

// Stare is a single position at the target, guided or not.
func Stare(repeat int, guide bool) (Pattern, error) {
	base := TelescopeOffset{Frame: SkyFrame{}, PosName: PosBase, Guide: guide}
	return buildPattern("Stare", repeat, base)
}

// StarSky visits the target (guided) then a sky position at (dx, dy).
func StarSky(dx, dy float64, repeat int) (Pattern, error) {
	return buildPattern(fmt.Sprintf("StarSky (%.0f %.0f)", dx, dy), repeat, star(), sky(dx, dy))
}

// SkyStar visits the sky position first, then the target.
func SkyStar(dx, dy float64, repeat int) (Pattern, error) {
	return buildPattern(fmt.Sprintf("SkyStar (%.0f %.0f)", dx, dy), repeat, sky(dx, dy), star())
}

// StarSkyStar brackets one sky position with two target positions.
func StarSkyStar(dx, dy float64, repeat int) (Pattern, error) {
	return buildPattern(fmt.Sprintf("StarSkyStar (%.0f %.0f)", dx, dy), repeat, star(), sky(dx, dy), star())
}
