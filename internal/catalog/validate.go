package catalog

import (
	"fmt"
	"strings"
)

// ValidationError collects every structural problem found in a catalog.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog validation failed:\n  %s", strings.Join(e.Problems, "\n  "))
}

// Validate performs all structural checks on the catalog.
// Returns a *ValidationError describing all problems found, or nil if valid.
func Validate(c *Catalog) error {
	var errs []string

	if len(c.Capsules) == 0 {
		errs = append(errs, "catalog has no capsules")
	}

	idSet := make(map[string]bool, len(c.Capsules))
	for i, cap := range c.Capsules {
		prefix := fmt.Sprintf("capsule %d (%q)", i, cap.ID)
		if cap.ID == "" {
			errs = append(errs, fmt.Sprintf("capsule %d: empty ID", i))
		} else if idSet[cap.ID] {
			errs = append(errs, fmt.Sprintf("duplicate capsule ID: %q", cap.ID))
		}
		idSet[cap.ID] = true

		if strings.TrimSpace(cap.Title) == "" {
			errs = append(errs, prefix+": empty title")
		}
		if cap.Position.X < 0 || cap.Position.X > 100 || cap.Position.Y < 0 || cap.Position.Y > 100 {
			errs = append(errs, fmt.Sprintf("%s: position (%g, %g) outside 0..100", prefix, cap.Position.X, cap.Position.Y))
		}
		if len(cap.Questions) == 0 {
			errs = append(errs, prefix+": no questions")
		}
		for qi, q := range cap.Questions {
			errs = append(errs, validateQuestion(fmt.Sprintf("%s question %d", prefix, qi), q)...)
		}
	}

	for _, e := range c.Edges {
		if !idSet[e.From] {
			errs = append(errs, fmt.Sprintf("edge %s->%s references nonexistent capsule %q", e.From, e.To, e.From))
		}
		if !idSet[e.To] {
			errs = append(errs, fmt.Sprintf("edge %s->%s references nonexistent capsule %q", e.From, e.To, e.To))
		}
		if e.From == e.To {
			errs = append(errs, fmt.Sprintf("edge %s->%s is a self-loop", e.From, e.To))
		}
	}

	if cyc := cycleNodes(c); len(cyc) > 0 {
		errs = append(errs, fmt.Sprintf("cycle detected involving capsules: %s", strings.Join(cyc, ", ")))
	}

	if len(errs) > 0 {
		return &ValidationError{Problems: errs}
	}
	return nil
}

func validateQuestion(prefix string, q Question) []string {
	var errs []string
	if strings.TrimSpace(q.Prompt) == "" {
		errs = append(errs, prefix+": empty prompt")
	}
	if len(q.Options) < 2 {
		errs = append(errs, fmt.Sprintf("%s: needs at least 2 options, got %d", prefix, len(q.Options)))
	}
	seen := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			errs = append(errs, prefix+": blank option")
			continue
		}
		if seen[o] {
			errs = append(errs, fmt.Sprintf("%s: duplicate option %q", prefix, o))
		}
		seen[o] = true
	}
	if !seen[q.CorrectOption] {
		errs = append(errs, fmt.Sprintf("%s: correct option %q is not one of the options", prefix, q.CorrectOption))
	}
	return errs
}

// cycleNodes runs Kahn's algorithm over the edge set and returns the IDs of
// capsules left with unresolved in-edges, in catalog order.
func cycleNodes(c *Catalog) []string {
	inDegree := make(map[string]int, len(c.Capsules))
	adj := make(map[string][]string)
	for _, cap := range c.Capsules {
		inDegree[cap.ID] = 0
	}
	for _, e := range c.Edges {
		if _, ok := inDegree[e.From]; !ok {
			continue
		}
		if _, ok := inDegree[e.To]; !ok {
			continue
		}
		inDegree[e.To]++
		adj[e.From] = append(adj[e.From], e.To)
	}

	var queue []string
	queued := make(map[string]bool, len(inDegree))
	for _, cap := range c.Capsules {
		if inDegree[cap.ID] == 0 && !queued[cap.ID] {
			queued[cap.ID] = true
			queue = append(queue, cap.ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range adj[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited == len(inDegree) {
		return nil
	}
	var out []string
	for _, cap := range c.Capsules {
		if inDegree[cap.ID] > 0 {
			out = append(out, cap.ID)
		}
	}
	return out
}
