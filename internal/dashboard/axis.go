package dashboard

import "math"

// AxisAssignment partitions metric fields between the primary and
// secondary chart y-axes. Field order follows the input order.
type AxisAssignment struct {
	Primary   []string `json:"primary"`
	Secondary []string `json:"secondary"`
}

// ClassifyAxes routes each field to an axis by order of magnitude, so a
// metric in single digits (velocity in m/s) is not flattened next to one
// in hundreds (force in N). The dominant magnitude group becomes the
// primary axis; a field lands on the secondary axis when its magnitude is
// more than 1 away from the dominant one. Fields with no values, or a max
// of zero, always stay primary. Best-effort heuristic, not a guarantee of
// optimal separation.
func ClassifyAxes(buckets []Bucket, fields []string) AxisAssignment {
	assignment := AxisAssignment{
		Primary:   []string{},
		Secondary: []string{},
	}

	type fieldInfo struct {
		hasMagnitude bool
		magnitude    int
	}
	infos := make(map[string]fieldInfo, len(fields))
	magnitudeCounts := make(map[int]int)

	for _, field := range fields {
		maxAbs := 0.0
		hasValue := false
		for _, bucket := range buckets {
			value := bucket.MetricAverages[field]
			if value == nil {
				continue
			}
			hasValue = true
			if abs := math.Abs(*value); abs > maxAbs {
				maxAbs = abs
			}
		}

		if !hasValue || maxAbs == 0 {
			infos[field] = fieldInfo{}
			continue
		}

		magnitude := int(math.Floor(math.Log10(maxAbs)))
		infos[field] = fieldInfo{hasMagnitude: true, magnitude: magnitude}
		magnitudeCounts[magnitude]++
	}

	// dominant magnitude group; ties go to the larger magnitude so the
	// big-valued metric keeps the primary axis
	primaryMagnitude := 0
	bestCount := -1
	for magnitude, count := range magnitudeCounts {
		if count > bestCount || (count == bestCount && magnitude > primaryMagnitude) {
			primaryMagnitude = magnitude
			bestCount = count
		}
	}

	for _, field := range fields {
		info := infos[field]
		if info.hasMagnitude && abs(info.magnitude-primaryMagnitude) > 1 {
			assignment.Secondary = append(assignment.Secondary, field)
		} else {
			assignment.Primary = append(assignment.Primary, field)
		}
	}

	return assignment
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
