package matching

import (
	"fmt"
	"strings"

	"tabular-reconciliation-backend/internal/table"
)

type Status string

const (
	StatusMatched   Status = "Matched"
	StatusUnmatched Status = "Unmatched"
	StatusUnknown   Status = "Unknown"
)

// NoMatch marks the absent side of a record.
const NoMatch = -1

type Mode string

const (
	// ModeLeft classifies source-1 rows only.
	ModeLeft Mode = "left"
	// ModeOuter also reports source-2 rows whose key never appears in source 1.
	ModeOuter Mode = "outer"
)

type TieBreak string

const (
	TieBreakLast  TieBreak = "last"
	TieBreakFirst TieBreak = "first"
)

type Options struct {
	Mode     Mode
	TieBreak TieBreak
}

func DefaultOptions() Options {
	return Options{Mode: ModeLeft, TieBreak: TieBreakLast}
}

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeLeft, nil
	case ModeLeft, ModeOuter:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

func ParseTieBreak(s string) (TieBreak, error) {
	switch tb := TieBreak(strings.ToLower(strings.TrimSpace(s))); tb {
	case "":
		return TieBreakLast, nil
	case TieBreakLast, TieBreakFirst:
		return tb, nil
	default:
		return "", fmt.Errorf("unknown tie-break %q", s)
	}
}

// Record pairs row positions; either side may be NoMatch.
type Record struct {
	Status Status
	Left   int
	Right  int
}

type Summary struct {
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	Unknown   int `json:"unknown"`
	Total     int `json:"total"`
}

func (s Summary) String() string {
	out := fmt.Sprintf("Matched: %d, Unmatched: %d", s.Matched, s.Unmatched)
	if s.Unknown > 0 {
		out += fmt.Sprintf(", Unknown: %d", s.Unknown)
	}
	return out + fmt.Sprintf(", Total: %d", s.Total)
}

type Result struct {
	Left    *table.Table
	Right   *table.Table
	Records []Record
	Summary Summary
	Options Options
}

// Reconcile matches every source-1 key against an index of source-2 keys.
// It never fails: a key is either in the index or not.
func Reconcile(left, right *table.Table, keys1, keys2 []Key, opts Options) *Result {
	index := make(map[string]int, len(keys2))
	for i, k := range keys2 {
		if k.Excluded {
			continue
		}
		if _, seen := index[k.Value]; seen && opts.TieBreak == TieBreakFirst {
			continue
		}
		index[k.Value] = i
	}

	res := &Result{
		Left:    left,
		Right:   right,
		Records: make([]Record, 0, len(keys1)),
		Options: opts,
	}

	for i, k := range keys1 {
		j, ok := index[k.Value]
		if ok && !k.Excluded {
			res.Records = append(res.Records, Record{Status: StatusMatched, Left: i, Right: j})
			res.Summary.Matched++
			continue
		}
		res.Records = append(res.Records, Record{Status: StatusUnmatched, Left: i, Right: NoMatch})
		res.Summary.Unmatched++
	}

	if opts.Mode == ModeOuter {
		present := make(map[string]struct{}, len(keys1))
		for _, k := range keys1 {
			if !k.Excluded {
				present[k.Value] = struct{}{}
			}
		}
		for j, k := range keys2 {
			if _, ok := present[k.Value]; ok && !k.Excluded {
				continue
			}
			res.Records = append(res.Records, Record{Status: StatusUnknown, Left: NoMatch, Right: j})
			res.Summary.Unknown++
		}
	}

	res.Summary.Total = len(res.Records)
	return res
}
