package signup

import (
	"sort"
	"strings"
	"time"
)

// Filter narrows an admin listing. Zero values match everything.
type Filter struct {
	Role   Role
	Plan   Plan
	Search string // case-insensitive substring of name or email
	Limit  int
}

// Match reports whether s passes the filter. Limit is not considered.
func (f Filter) Match(s Signup) bool {
	if f.Role != "" && s.Role != f.Role {
		return false
	}
	if f.Plan != "" && !s.HasPlan(f.Plan) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(s.Name), q) && !strings.Contains(strings.ToLower(s.Email), q) {
			return false
		}
	}
	return true
}

// Count is a labelled tally.
type Count struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	Total    int     `json:"total"`
	ThisWeek int     `json:"this_week"`
	ByRole   []Count `json:"by_role"`
	ByPlan   []Count `json:"by_plan"`
}

// TopRoles returns at most n role counts, largest first.
func (s Stats) TopRoles(n int) []Count {
	if n > len(s.ByRole) {
		n = len(s.ByRole)
	}
	return s.ByRole[:n]
}

// ComputeStats tallies signups. ThisWeek counts signups strictly newer than
// seven days before now. ByRole is sorted by count descending, ties in role
// order; ByPlan follows plan order.
func ComputeStats(all []Signup, now time.Time) Stats {
	weekAgo := now.AddDate(0, 0, -7)
	st := Stats{Total: len(all)}

	roleCounts := make(map[Role]int)
	planCounts := make(map[Plan]int)
	for _, s := range all {
		if s.CreatedAt.After(weekAgo) {
			st.ThisWeek++
		}
		roleCounts[s.Role]++
		for _, p := range s.InterestedPlans {
			planCounts[p]++
		}
	}

	for _, r := range Roles() {
		st.ByRole = append(st.ByRole, Count{Key: string(r), Label: r.Label(), Count: roleCounts[r]})
	}
	sort.SliceStable(st.ByRole, func(i, j int) bool {
		return st.ByRole[i].Count > st.ByRole[j].Count
	})
	for _, p := range Plans() {
		st.ByPlan = append(st.ByPlan, Count{Key: string(p), Label: p.Label(), Count: planCounts[p]})
	}
	return st
}
