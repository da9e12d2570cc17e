package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/c360studio/briefwork/workshop"
)

// shortIDLen is how many id characters list output shows.
const shortIDLen = 8

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// resolveID expands a unique id prefix. An exact match always wins. With no
// match the prefix comes back unchanged and found is false, so the mutator
// applies its own not-found rule.
func resolveID(kind, prefix string, ids []string) (id string, found bool, err error) {
	var matches []string
	for _, candidate := range ids {
		if candidate == prefix {
			return candidate, true, nil
		}
		if strings.HasPrefix(candidate, prefix) {
			matches = append(matches, candidate)
		}
	}
	switch len(matches) {
	case 0:
		return prefix, false, nil
	case 1:
		return matches[0], true, nil
	default:
		return "", false, fmt.Errorf("%w: %s id %q matches %d %ss", workshop.ErrInvalidReference, kind, prefix, len(matches), kind)
	}
}

func noteIDs(s workshop.SessionState) []string {
	ids := make([]string, len(s.StickyNoteExercise.Notes))
	for i, n := range s.StickyNoteExercise.Notes {
		ids[i] = n.ID
	}
	return ids
}

func clusterIDs(s workshop.SessionState) []string {
	ids := make([]string, len(s.StickyNoteExercise.Clusters))
	for i, cl := range s.StickyNoteExercise.Clusters {
		ids[i] = cl.ID
	}
	return ids
}

func cardIDs(s workshop.SessionState) []string {
	var ids []string
	for _, b := range workshop.Buckets() {
		for _, card := range s.Prioritization.Cards(b) {
			ids = append(ids, card.ID)
		}
	}
	return ids
}

// bucketAliases accepts the short spellings facilitators type.
var bucketAliases = map[string]workshop.Bucket{
	"will":  workshop.BucketWillHave,
	"could": workshop.BucketCouldHave,
	"wont":  workshop.BucketWontHave,
	"won't": workshop.BucketWontHave,
}

func parseBucket(s string) (workshop.Bucket, error) {
	if b, ok := bucketAliases[strings.ToLower(s)]; ok {
		return b, nil
	}
	return workshop.ParseBucket(s)
}

// parseSeconds accepts a Go duration ("90s", "10m") or a bare number of
// minutes.
func parseSeconds(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n * 60, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is neither minutes nor a duration like 90s", workshop.ErrInvalidDuration, s)
	}
	return int(d / time.Second), nil
}

// clock renders seconds as m:ss.
func clock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
