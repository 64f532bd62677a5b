// Package search parses library queries and merges host library results
// with the external catalog.
package search

import (
	"regexp"
	"strconv"
	"strings"
)

// bpmTolerance widens a single bpm:N into [N-5, N+5]
const bpmTolerance = 5.0

// Filter is a parsed query. Nil bounds and empty strings are absent.
type Filter struct {
	FreeText    string   `json:"free_text"`
	BPMMin      *float64 `json:"bpm_min,omitempty"`
	BPMMax      *float64 `json:"bpm_max,omitempty"`
	Key         string   `json:"key,omitempty"`
	NamePattern string   `json:"name_pattern,omitempty"`
	Genre       string   `json:"genre,omitempty"`
}

// a filter token may swallow one trailing comma so "bpm:120, key:C" leaves
// no punctuation behind
var tokenPattern = regexp.MustCompile(`(?i)\b(bpm|key|name|genre):("[^"]*"|[^\s,]+),?`)

var bpmRange = regexp.MustCompile(`^(\d+(?:\.\d+)?)-(\d+(?:\.\d+)?)$`)

// Parse extracts key:value filters and returns the rest as free text.
// Keys are case-insensitive; later tokens override earlier ones.
func Parse(raw string) Filter {
	var f Filter

	for _, m := range tokenPattern.FindAllStringSubmatch(raw, -1) {
		value := strings.Trim(m[2], `"`)
		switch strings.ToLower(m[1]) {
		case "bpm":
			f.BPMMin, f.BPMMax = parseBPM(value)
		case "key":
			f.Key = value
		case "name":
			f.NamePattern = strings.ToLower(value)
		case "genre":
			f.Genre = value
		}
	}

	rest := tokenPattern.ReplaceAllString(raw, " ")
	f.FreeText = strings.Join(strings.Fields(rest), " ")
	return f
}

func parseBPM(value string) (lo, hi *float64) {
	if m := bpmRange.FindStringSubmatch(value); m != nil {
		a, _ := strconv.ParseFloat(m[1], 64)
		b, _ := strconv.ParseFloat(m[2], 64)
		if a > b {
			a, b = b, a
		}
		return &a, &b
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, nil
	}
	a, b := n-bpmTolerance, n+bpmTolerance
	return &a, &b
}

// IsEmpty reports whether the filter matches everything
func (f Filter) IsEmpty() bool {
	return f.FreeText == "" && f.BPMMin == nil && f.BPMMax == nil &&
		f.Key == "" && f.NamePattern == "" && f.Genre == ""
}
