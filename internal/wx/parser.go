package wx

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Token patterns shared by METAR-style and TAF-style reports.
var (
	timeRegex    = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})Z$`)
	windRegex    = regexp.MustCompile(`^(VRB|\d{3})(\d{2,3})(G(\d{2,3}))?KT$`)
	visRegex     = regexp.MustCompile(`^(M|P)?(\d+)(?:/(\d+))?SM$`)
	visFracRegex = regexp.MustCompile(`^(\d+)/(\d+)SM$`)
	visPlusRegex = regexp.MustCompile(`^(\d+)\+$`)
	cloudRegex   = regexp.MustCompile(`^(SKC|CLR|FEW|SCT|BKN|OVC|VV)(\d{3})?(CB|TCU)?$`)
	validRegex   = regexp.MustCompile(`^(\d{2})(\d{2})/(\d{2})(\d{2})$`)
	fmRegex      = regexp.MustCompile(`^FM(\d{2})(\d{2})(\d{2})$`)
	probRegex    = regexp.MustCompile(`^PROB(\d{2})$`)
	stationRegex = regexp.MustCompile(`^[A-Z0-9]{4}$`)
	wxCodeRegex  = regexp.MustCompile(`^(\+|-|VC)?([A-Z]{2,8})$`)
)

// token is one whitespace-delimited field with its byte offset in the raw
// text, kept so parse errors can point at the offending token.
type token struct {
	text   string
	offset int
}

// tokenize splits raw on whitespace, preserving byte offsets.
func tokenize(raw string) []token {
	var tokens []token
	start := -1
	for i, r := range raw {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, token{text: raw[start:i], offset: start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, token{text: raw[start:], offset: start})
	}
	return tokens
}

// parseReportTime parses a DDHHMMZ issue-time token relative to ref,
// rolling back a month when the day-of-month lies in the future.
func parseReportTime(tok string, ref time.Time) (time.Time, bool) {
	matches := timeRegex.FindStringSubmatch(tok)
	if matches == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(matches[1])
	hour, _ := strconv.Atoi(matches[2])
	minute, _ := strconv.Atoi(matches[3])
	if day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, false
	}

	ref = ref.UTC()
	t := time.Date(ref.Year(), ref.Month(), day, hour, minute, 0, 0, time.UTC)
	if ref.Day() < day {
		t = t.AddDate(0, -1, 0)
	}
	return t, true
}

// parseDayHour builds a forecast boundary time from a DD and HH pair
// relative to ref, rolling forward a month when the day lies in the past.
// Hour 24 is the conventional end-of-day marker.
func parseDayHour(day, hour int, ref time.Time) time.Time {
	ref = ref.UTC()
	extraDay := 0
	if hour == 24 {
		hour = 0
		extraDay = 1
	}
	t := time.Date(ref.Year(), ref.Month(), day, hour, 0, 0, 0, time.UTC)
	if day < ref.Day() {
		t = t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, extraDay)
}

// conditions accumulates the recognized weather elements of one report or
// forecast period. Pointer-style presence tracking feeds overlay merging.
type conditions struct {
	wind         *WindInfo
	visibility   *float64
	skySeen      bool
	ceilingFt    int
	wxSeen       bool
	thunderstorm bool
}

func newConditions() conditions {
	return conditions{ceilingFt: CeilingNone}
}

// absorb interprets one token (with optional lookahead for split fractional
// visibility like "1 1/2SM"). It returns how many tokens were consumed
// (0 when unrecognized) and a *MalformedReportError for syntactically
// invalid wind or visibility groups.
func (c *conditions) absorb(tok token, next *token) (int, error) {
	// Wind group.
	if m := windRegex.FindStringSubmatch(tok.text); m != nil {
		wind := WindInfo{}
		wind.SpeedKt, _ = strconv.Atoi(m[2])
		if m[4] != "" {
			wind.GustKt, _ = strconv.Atoi(m[4])
		}
		switch {
		case m[1] == "VRB":
			wind.DirectionDeg = DirectionVariable
		case wind.SpeedKt == 0 && wind.GustKt == 0:
			// Explicit calm (00000KT): no usable direction.
			wind.DirectionDeg = DirectionVariable
		default:
			dir, _ := strconv.Atoi(m[1])
			if dir >= 360 {
				dir -= 360
			}
			wind.DirectionDeg = dir
		}
		c.wind = &wind
		return 1, nil
	}
	if strings.HasSuffix(tok.text, "KT") {
		return 0, &MalformedReportError{Offset: tok.offset, Token: tok.text}
	}

	// Split fractional visibility: whole-mile token followed by "N/MSM".
	if isDigits(tok.text) && next != nil {
		if m := visFracRegex.FindStringSubmatch(next.text); m != nil {
			whole, _ := strconv.Atoi(tok.text)
			num, _ := strconv.Atoi(m[1])
			den, _ := strconv.Atoi(m[2])
			if den == 0 {
				return 0, &MalformedReportError{Offset: next.offset, Token: next.text}
			}
			v := float64(whole) + float64(num)/float64(den)
			c.visibility = &v
			return 2, nil
		}
	}

	// Visibility group.
	if m := visRegex.FindStringSubmatch(tok.text); m != nil {
		value, _ := strconv.ParseFloat(m[2], 64)
		if m[3] != "" {
			den, _ := strconv.ParseFloat(m[3], 64)
			if den == 0 {
				return 0, &MalformedReportError{Offset: tok.offset, Token: tok.text}
			}
			value /= den
		}
		c.visibility = &value
		return 1, nil
	}
	if strings.HasSuffix(tok.text, "SM") {
		return 0, &MalformedReportError{Offset: tok.offset, Token: tok.text}
	}

	// "10+" / "6+" style at-least visibility: keep the numeric floor.
	if m := visPlusRegex.FindStringSubmatch(tok.text); m != nil {
		value, _ := strconv.ParseFloat(m[1], 64)
		c.visibility = &value
		return 1, nil
	}

	// Sky condition. The ceiling is the lowest broken/overcast layer (or
	// vertical visibility); lower scattered/few layers do not set it.
	if m := cloudRegex.FindStringSubmatch(tok.text); m != nil {
		c.skySeen = true
		if m[2] != "" && (m[1] == "BKN" || m[1] == "OVC" || m[1] == "VV") {
			height, _ := strconv.Atoi(m[2])
			heightFt := height * 100
			if c.ceilingFt == CeilingNone || heightFt < c.ceilingFt {
				c.ceilingFt = heightFt
			}
		}
		return 1, nil
	}

	// Weather phenomena. Only the thunderstorm descriptor matters here.
	if m := wxCodeRegex.FindStringSubmatch(tok.text); m != nil && isWeatherCode(m[2]) {
		c.wxSeen = true
		if strings.Contains(m[2], "TS") {
			c.thunderstorm = true
		}
		return 1, nil
	}

	return 0, nil
}

// weatherCodes holds the phenomena descriptors a report may carry. Unlisted
// tokens are skipped for forward compatibility rather than failing the parse.
var weatherCodes = map[string]bool{
	"TS": true, "TSRA": true, "TSSN": true, "TSGR": true, "TSGS": true,
	"SHRA": true, "SHSN": true, "SHGR": true, "RA": true, "SN": true,
	"DZ": true, "SG": true, "IC": true, "PL": true, "GR": true, "GS": true,
	"UP": true, "BR": true, "FG": true, "FU": true, "VA": true, "DU": true,
	"SA": true, "HZ": true, "PY": true, "PO": true, "SQ": true, "FC": true,
	"SS": true, "DS": true, "FZRA": true, "FZDZ": true, "FZFG": true,
	"BLSN": true, "DRSN": true, "BLDU": true, "BLSA": true, "MIFG": true,
	"BCFG": true, "PRFG": true,
}

func isWeatherCode(code string) bool {
	return weatherCodes[code]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseObservation decodes one raw METAR-style report into an Observation.
// Tokens are matched in any order after the fixed-position station and time
// tokens; unrecognized tokens are skipped. A missing or malformed time token
// and syntactically invalid wind/visibility groups are fatal. ref anchors
// the report's day-of-month time token to a full date.
func ParseObservation(icao, raw string, ref time.Time) (Observation, error) {
	tokens := tokenize(raw)

	// Skip an optional report-type keyword.
	if len(tokens) > 0 && (tokens[0].text == "METAR" || tokens[0].text == "SPECI") {
		tokens = tokens[1:]
	}
	// Skip the station token when present.
	if len(tokens) > 0 && stationRegex.MatchString(tokens[0].text) && !timeRegex.MatchString(tokens[0].text) {
		tokens = tokens[1:]
	}

	if len(tokens) == 0 {
		return Observation{}, &MalformedReportError{Offset: len(raw)}
	}
	issued, ok := parseReportTime(tokens[0].text, ref)
	if !ok {
		return Observation{}, &MalformedReportError{Offset: tokens[0].offset, Token: tokens[0].text}
	}
	tokens = tokens[1:]

	cond := newConditions()
	for i := 0; i < len(tokens); {
		if tokens[i].text == "RMK" {
			break
		}
		var next *token
		if i+1 < len(tokens) {
			next = &tokens[i+1]
		}
		consumed, err := cond.absorb(tokens[i], next)
		if err != nil {
			return Observation{}, err
		}
		if consumed == 0 {
			consumed = 1 // unrecognized, skip
		}
		i += consumed
	}

	obs := Observation{
		ICAO:         icao,
		Raw:          raw,
		IssuedAt:     issued,
		VisibilitySM: VisibilityUnlimited,
		CeilingFt:    cond.ceilingFt,
		Thunderstorm: cond.thunderstorm,
	}
	if cond.wind != nil {
		obs.Wind = *cond.wind
	} else {
		obs.Wind = WindInfo{DirectionDeg: DirectionVariable}
	}
	if cond.visibility != nil {
		obs.VisibilitySM = *cond.visibility
	}
	return obs, nil
}

// periodBuilder accumulates one forecast change group while scanning.
type periodBuilder struct {
	kind  ChangeKind
	prob  int
	from  time.Time
	to    time.Time
	start int // byte offset of the group's first token
	end   int // byte offset past the group's last token
	cond  conditions
}

func (b *periodBuilder) build(icao, raw string) ForecastPeriod {
	p := ForecastPeriod{
		ICAO:        icao,
		Kind:        b.kind,
		Probability: b.prob,
		From:        b.from,
		To:          b.to,
		Raw:         strings.TrimSpace(rawSlice(raw, b.start, b.end)),
	}
	if b.cond.wind != nil {
		p.Wind = b.cond.wind
	}
	if b.cond.visibility != nil {
		p.VisibilitySM = b.cond.visibility
	}
	if b.cond.skySeen {
		ceiling := b.cond.ceilingFt
		p.CeilingFt = &ceiling
	}
	if b.cond.wxSeen {
		ts := b.cond.thunderstorm
		p.Thunderstorm = &ts
	}
	return p
}

func rawSlice(raw string, start, end int) string {
	if start < 0 || start >= len(raw) {
		return ""
	}
	if end <= start || end > len(raw) {
		end = len(raw)
	}
	return raw[start:end]
}

// ParseForecast decodes one raw TAF-style bulletin into an ordered sequence
// of forecast periods. The bulletin's validity range becomes the BASE
// period; FROM groups split the non-overlay timeline; BECMG, TEMPO and
// PROBnn groups carry their own DDHH/DDHH valid-time token, which is
// mandatory. The result is sorted by valid-from (stable with respect to
// declaration order). ref anchors day-of-month tokens to full dates.
func ParseForecast(icao, raw string, ref time.Time) ([]ForecastPeriod, error) {
	tokens := tokenize(raw)

	// Header: optional TAF keyword with optional amendment marker.
	if len(tokens) > 0 && tokens[0].text == "TAF" {
		tokens = tokens[1:]
	}
	if len(tokens) > 0 && (tokens[0].text == "AMD" || tokens[0].text == "COR") {
		tokens = tokens[1:]
	}
	// Station.
	if len(tokens) > 0 && stationRegex.MatchString(tokens[0].text) && !timeRegex.MatchString(tokens[0].text) {
		tokens = tokens[1:]
	}

	if len(tokens) == 0 {
		return nil, &MalformedReportError{Offset: len(raw)}
	}
	if _, ok := parseReportTime(tokens[0].text, ref); !ok {
		return nil, &MalformedReportError{Offset: tokens[0].offset, Token: tokens[0].text}
	}
	tokens = tokens[1:]

	if len(tokens) == 0 {
		return nil, &MalformedReportError{Offset: len(raw)}
	}
	validMatch := validRegex.FindStringSubmatch(tokens[0].text)
	if validMatch == nil {
		return nil, &MalformedReportError{Offset: tokens[0].offset, Token: tokens[0].text}
	}
	fromDay, _ := strconv.Atoi(validMatch[1])
	fromHour, _ := strconv.Atoi(validMatch[2])
	toDay, _ := strconv.Atoi(validMatch[3])
	toHour, _ := strconv.Atoi(validMatch[4])
	baseFrom := parseDayHour(fromDay, fromHour, ref)
	baseTo := parseDayHour(toDay, toHour, ref)
	if !baseTo.After(baseFrom) {
		baseTo = baseTo.AddDate(0, 1, 0)
	}
	tokens = tokens[1:]

	current := &periodBuilder{kind: GroupBase, from: baseFrom, to: baseTo, cond: newConditions()}
	if len(tokens) > 0 {
		current.start = tokens[0].offset
	}

	var builders []*periodBuilder
	lastNonOverlay := current

	finalize := func(next int) {
		current.end = next
		builders = append(builders, current)
	}

	// parseGroupWindow reads the mandatory DDHH/DDHH token of a BECMG,
	// TEMPO, or PROB group.
	parseGroupWindow := func(tok token) (time.Time, time.Time, error) {
		m := validRegex.FindStringSubmatch(tok.text)
		if m == nil {
			return time.Time{}, time.Time{}, &MalformedReportError{Offset: tok.offset, Token: tok.text}
		}
		fd, _ := strconv.Atoi(m[1])
		fh, _ := strconv.Atoi(m[2])
		td, _ := strconv.Atoi(m[3])
		th, _ := strconv.Atoi(m[4])
		from := parseDayHour(fd, fh, ref)
		to := parseDayHour(td, th, ref)
		if !to.After(from) {
			to = to.AddDate(0, 1, 0)
		}
		return from, to, nil
	}

	i := 0
	for i < len(tokens) {
		tok := tokens[i]

		// FMDDHHMM (or legacy "FM DDHHMM") starts a new non-overlay period.
		fmText := tok.text
		fmConsumed := 1
		if tok.text == "FM" && i+1 < len(tokens) {
			fmText = "FM" + tokens[i+1].text
			fmConsumed = 2
		}
		if m := fmRegex.FindStringSubmatch(fmText); m != nil {
			day, _ := strconv.Atoi(m[1])
			hour, _ := strconv.Atoi(m[2])
			minute, _ := strconv.Atoi(m[3])
			if hour > 23 || minute > 59 {
				return nil, &MalformedReportError{Offset: tok.offset, Token: tok.text}
			}
			from := parseDayHour(day, hour, ref).Add(time.Duration(minute) * time.Minute)

			finalize(tok.offset)
			lastNonOverlay.to = from

			current = &periodBuilder{kind: GroupFrom, from: from, to: baseTo, start: tok.offset, cond: newConditions()}
			lastNonOverlay = current
			i += fmConsumed
			continue
		}

		if tok.text == "BECMG" || tok.text == "TEMPO" {
			kind := GroupBecoming
			if tok.text == "TEMPO" {
				kind = GroupTempo
			}
			if i+1 >= len(tokens) {
				return nil, &MalformedReportError{Offset: tok.offset, Token: tok.text}
			}
			from, to, err := parseGroupWindow(tokens[i+1])
			if err != nil {
				return nil, err
			}
			finalize(tok.offset)
			current = &periodBuilder{kind: kind, from: from, to: to, start: tok.offset, cond: newConditions()}
			i += 2
			continue
		}

		if m := probRegex.FindStringSubmatch(tok.text); m != nil {
			prob, _ := strconv.Atoi(m[1])
			next := i + 1
			if next < len(tokens) && tokens[next].text == "TEMPO" {
				next++
			}
			if next >= len(tokens) {
				return nil, &MalformedReportError{Offset: tok.offset, Token: tok.text}
			}
			from, to, err := parseGroupWindow(tokens[next])
			if err != nil {
				return nil, err
			}
			finalize(tok.offset)
			current = &periodBuilder{kind: GroupProb, prob: prob, from: from, to: to, start: tok.offset, cond: newConditions()}
			i = next + 1
			continue
		}

		if tok.text == "RMK" {
			break
		}

		var next *token
		if i+1 < len(tokens) {
			next = &tokens[i+1]
		}
		consumed, err := current.cond.absorb(tok, next)
		if err != nil {
			return nil, err
		}
		if consumed == 0 {
			consumed = 1
		}
		i += consumed
	}
	finalize(len(raw))

	periods := make([]ForecastPeriod, 0, len(builders))
	for _, b := range builders {
		periods = append(periods, b.build(icao, raw))
	}

	// Stable sort by valid-from keeps declaration order for equal times,
	// which the resolver's tie-break policy relies on.
	sortPeriodsByFrom(periods)
	return periods, nil
}

func sortPeriodsByFrom(periods []ForecastPeriod) {
	// Insertion sort: sequences are short (<20) and stability matters.
	for i := 1; i < len(periods); i++ {
		for j := i; j > 0 && periods[j].From.Before(periods[j-1].From); j-- {
			periods[j], periods[j-1] = periods[j-1], periods[j]
		}
	}
}
