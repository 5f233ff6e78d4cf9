package bloodtest

import "sort"

// BuildSeries returns one series per metric, in the order given. Points are
// sorted by date performed, oldest first; tests with equal dates keep their
// input order. A test without the metric contributes 0.
func BuildSeries(tests []*BloodTest, metricNames []string) []Series {
	ordered := make([]*BloodTest, len(tests))
	copy(ordered, tests)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DatePerformed.Before(ordered[j].DatePerformed)
	})

	out := make([]Series, 0, len(metricNames))
	for _, m := range metricNames {
		points := make([]Point, 0, len(ordered))
		for _, t := range ordered {
			points = append(points, Point{Date: t.DatePerformed, Value: t.Results[m]})
		}
		out = append(out, Series{Metric: m, Points: points})
	}
	return out
}

// MetricNames is the sorted union of metric names across tests.
func MetricNames(tests []*BloodTest) []string {
	seen := make(map[string]struct{})
	for _, t := range tests {
		for m := range t.Results {
			seen[m] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for m := range seen {
		names = append(names, m)
	}
	sort.Strings(names)
	return names
}
