package target

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/litescript/ls-odl/internal/astro"
)

// Starlist lines carry the name in a fixed-width field followed by
// "hh mm ss.ss ±dd mm ss.s equinox key=value ... # comment".
const starlistNameWidth = 16

// ParseStarlistLine parses one starlist record. Blank and comment-only
// lines return (nil, nil).
func ParseStarlistLine(line string) (*Target, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, nil
	}
	if len(line) <= starlistNameWidth {
		return nil, fmt.Errorf("%w: %q too short", ErrStarlist, line)
	}

	name := strings.TrimSpace(line[:starlistNameWidth])
	body, comment, _ := strings.Cut(line[starlistNameWidth:], "#")
	fields := strings.Fields(body)
	if name == "" || len(fields) < 7 {
		return nil, fmt.Errorf("%w: %q needs name, RA, Dec and equinox", ErrStarlist, line)
	}

	ra, err := astro.ParseHMS(strings.Join(fields[0:3], " "))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStarlist, err)
	}
	dec, err := astro.ParseDMS(strings.Join(fields[3:6], " "))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStarlist, err)
	}
	pos, err := parseEquinox(fields[6], ra, dec)
	if err != nil {
		return nil, err
	}

	t := New(name, pos)
	var pmraSec float64
	for _, kv := range fields[7:] {
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not key=value", ErrStarlist, kv)
		}
		if err := t.setStarlistKey(strings.ToLower(key), val, &pmraSec); err != nil {
			return nil, err
		}
	}
	if pmraSec != 0 {
		// pmra is seconds of time per year; convert to on-sky arcsec/yr
		t.PM.PMRA = pmraSec * 15 * math.Cos(pos.DecDeg*math.Pi/180)
	}

	t.Comment, t.Mags = parseStarlistComment(comment, t.Mags)
	return t, nil
}

// besselianBefore is the year before which a bare equinox means B-epoch FK4.
const besselianBefore = 1984

func parseEquinox(s string, ra, dec float64) (astro.SkyCoord, error) {
	num, julian := strings.CutPrefix(strings.ToUpper(s), "J")
	eq, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return astro.SkyCoord{}, fmt.Errorf("%w: unsupported equinox %q", ErrStarlist, s)
	}
	if !julian && eq < besselianBefore {
		return astro.SkyCoord{}, fmt.Errorf("%w: equinox %q is Besselian; write J%s for a Julian equinox", ErrStarlist, s, num)
	}
	if eq == 2000 {
		return astro.NewICRS(ra, dec), nil
	}
	return astro.NewFK5(ra, dec, eq), nil
}

func (t *Target) setStarlistKey(key, val string, pmraSec *float64) error {
	num := func() (float64, error) {
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q is not a number", ErrStarlist, key, val)
		}
		return v, nil
	}

	var err error
	switch key {
	case "rotmode":
		t.RotMode = RotMode(strings.ToLower(val))
	case "pa", "rotdest":
		t.PA, err = num()
	case "raoff":
		t.RAOffset, err = num()
	case "decoff":
		t.DecOffset, err = num()
	case "wrap":
		t.Wrap = val
	case "vmag":
		var v float64
		if v, err = num(); err == nil {
			t.setMag("V", v)
		}
	case "dra":
		t.DRA, err = num()
	case "ddec":
		t.DDec, err = num()
	case "pmra":
		*pmraSec, err = num()
	case "pmdec":
		t.PM.PMDec, err = num()
	case "epoch":
		var v float64
		if v, err = num(); err == nil {
			t.Epoch = &v
		}
	}
	// Unknown keys are telescope-specific and ignored.
	return err
}

func (t *Target) setMag(band string, v float64) {
	if t.Mags == nil {
		t.Mags = make(map[string]float64)
	}
	t.Mags[band] = v
}

// parseStarlistComment pulls leading "<band>mag=<value>" tokens out of the
// comment into mags and returns the remaining free text.
func parseStarlistComment(comment string, mags map[string]float64) (string, map[string]float64) {
	tokens := strings.Fields(comment)
	i := 0
	for ; i < len(tokens); i++ {
		band, val, ok := strings.Cut(tokens[i], "mag=")
		if !ok || band == "" {
			break
		}
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			break
		}
		if mags == nil {
			mags = make(map[string]float64)
		}
		mags[band] = v
	}
	return strings.Join(tokens[i:], " "), mags
}

// StarlistLine formats the target as a starlist record. Positions are
// written at their own epoch; proper motion goes out as pmra/pmdec/epoch
// keys. Galactic positions are converted to ICRS first.
func (t *Target) StarlistLine() (string, error) {
	if t.Position == nil {
		return "", fmt.Errorf("%w: %q", ErrNoPosition, t.Name)
	}

	pos := *t.Position
	if pos.Frame == astro.Galactic {
		var err error
		if pos, err = astro.ConvertFrame(pos, astro.ICRS, 0); err != nil {
			return "", err
		}
	}
	equinox := "2000"
	if pos.Frame == astro.FK5 && pos.Equinox != 0 && pos.Equinox != 2000 {
		equinox = strconv.FormatFloat(pos.Equinox, 'f', -1, 64)
		if pos.Equinox < besselianBefore {
			equinox = "J" + equinox
		}
	}

	name := t.Name
	if len(name) > starlistNameWidth-1 {
		name = name[:starlistNameWidth-1]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s %s %s %s", starlistNameWidth-1, name,
		astro.FormatHMS(pos.RAdeg, 2), astro.FormatDMS(pos.DecDeg, 1), equinox)

	if t.RotMode != "" {
		fmt.Fprintf(&b, " rotmode=%s", t.RotMode)
	}
	if t.RotMode != "" || t.PA != 0 {
		fmt.Fprintf(&b, " PA=%.1f", t.PA)
	}
	if t.RAOffset != 0 {
		fmt.Fprintf(&b, " raoff=%s", formatNum(t.RAOffset))
	}
	if t.DecOffset != 0 {
		fmt.Fprintf(&b, " decoff=%s", formatNum(t.DecOffset))
	}
	if t.Wrap != "" {
		fmt.Fprintf(&b, " wrap=%s", t.Wrap)
	}
	if v, ok := t.Mags["V"]; ok {
		fmt.Fprintf(&b, " vmag=%.2f", v)
	}
	if t.DRA != 0 {
		fmt.Fprintf(&b, " dra=%s", formatNum(t.DRA))
	}
	if t.DDec != 0 {
		fmt.Fprintf(&b, " ddec=%s", formatNum(t.DDec))
	}
	if t.HasSpaceMotion() && t.Epoch != nil {
		cosDec := math.Cos(pos.DecDeg * math.Pi / 180)
		fmt.Fprintf(&b, " pmra=%s pmdec=%s epoch=%s",
			formatNum(t.PM.PMRA/(15*cosDec)), formatNum(t.PM.PMDec), formatNum(*t.Epoch))
	}

	var tail []string
	for _, band := range slices.Sorted(maps.Keys(t.Mags)) {
		tail = append(tail, fmt.Sprintf("%smag=%.2f", band, t.Mags[band]))
	}
	if t.Comment != "" {
		tail = append(tail, t.Comment)
	}
	if len(tail) > 0 {
		b.WriteString(" # " + strings.Join(tail, " "))
	}
	return b.String(), nil
}

// ReadStarlist parses every record in r. Line numbers are reported on error.
func ReadStarlist(r io.Reader) ([]*Target, error) {
	var out []*Target
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		t, err := ParseStarlistLine(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if t != nil {
			out = append(out, t)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read starlist: %w", err)
	}
	return out, nil
}

// WriteStarlist writes one record per target.
func WriteStarlist(w io.Writer, targets []*Target) error {
	for _, t := range targets {
		line, err := t.StarlistLine()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
