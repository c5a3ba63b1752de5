// Package summary reduces a scrobble log to a ranked top-track list and posts the
// daily listening summary.
package summary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/onnwee/charbot/lastfm"
)

// RankedTrack is one aggregated entry. Rank is 1-based and contiguous.
type RankedTrack struct {
	Track  string
	Artist string
	Count  int
	Rank   int
}

// TopTracks groups completed scrobbles by track+artist, counts plays, and returns
// at most limit entries ordered by descending count. Now-playing entries are
// skipped: they have no final play count yet. Ties keep the order in which the
// track was first seen in the log; callers depend on that stability.
func TopTracks(log []lastfm.Scrobble, limit int) []RankedTrack {
	idx := make(map[string]int)
	groups := make([]RankedTrack, 0)
	for _, s := range log {
		if s.NowPlaying {
			continue
		}
		key := s.Track + "\x00" + s.Artist
		if i, ok := idx[key]; ok {
			groups[i].Count++
			continue
		}
		idx[key] = len(groups)
		groups = append(groups, RankedTrack{Track: s.Track, Artist: s.Artist, Count: 1})
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Count > groups[j].Count })
	if len(groups) > limit {
		groups = groups[:limit]
	}
	for i := range groups {
		groups[i].Rank = i + 1
	}
	return groups
}

const (
	scheduledLead = "🌙 Hey Ivie! It's 7pm, you should probably give a daily update (if you want to.) Anyways, heres your top songs."
	onDemandLead  = "🎵 Top 5 tracks today"
)

// Message renders the summary text: a lead line distinguishing the nightly prompt
// from an on-demand request, then either the no-tracks text or one line per rank.
func Message(scheduled bool, user string, tracks []RankedTrack) string {
	lead := onDemandLead
	if scheduled {
		lead = scheduledLead
	}
	if len(tracks) == 0 {
		return fmt.Sprintf("%s\nNo tracks listened to today for %s", lead, user)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nTop 5 tracks today for %s:", lead, user)
	for _, t := range tracks {
		fmt.Fprintf(&b, "\n%d. %s - %s (%d plays)", t.Rank, t.Track, t.Artist, t.Count)
	}
	return b.String()
}
