package content

import (
	"sort"
	"time"
)

// PurgeCandidates returns, oldest first, the version numbers the policy
// allows to be removed: entries older than AutoPurgeAfter days, then the
// oldest entries beyond MaxVersions. The current version is never a candidate.
func PurgeCandidates(versions []Version, current int, p VersioningPolicy, now time.Time) []int {
	var cutoff time.Time
	if p.AutoPurgeAfter > 0 {
		cutoff = now.AddDate(0, 0, -p.AutoPurgeAfter)
	}

	var out []int
	kept := make([]int, 0, len(versions))
	for _, v := range versions {
		if v.Version == current {
			kept = append(kept, v.Version)
			continue
		}
		if !cutoff.IsZero() && v.Timestamp.Before(cutoff) {
			out = append(out, v.Version)
			continue
		}
		kept = append(kept, v.Version)
	}

	if p.MaxVersions > 0 {
		excess := len(kept) - p.MaxVersions
		for _, n := range kept {
			if excess <= 0 {
				break
			}
			if n == current {
				continue
			}
			out = append(out, n)
			excess--
		}
	}
	sort.Ints(out)
	return out
}
