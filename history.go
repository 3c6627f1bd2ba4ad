package uvio

import "strings"

// collapseWhitespace reduces every whitespace run to a single space so
// reflowed history strings still compare equal.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// HistoriesMatch reports whether one history contains the other after
// whitespace normalization. A file whose history gained trailing
// annotations still matches the history it grew from.
func HistoriesMatch(a, b string) bool {
	ca, cb := collapseWhitespace(a), collapseWhitespace(b)
	return strings.Contains(ca, cb) || strings.Contains(cb, ca)
}

// downselectNote builds the history annotation for a partial read,
// naming the criteria that were actually given.
func downselectNote(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return "Downselected to specific " + joinNatural(parts) + " using uvio."
}

// combineNote builds the history annotation for a multi-file combine.
func combineNote(axis string) string {
	var name string
	switch axis {
	case axisBlt:
		name = "baseline-time"
	case axisFreq:
		name = "frequency"
	case axisPol:
		name = "polarization"
	default:
		name = axis
	}
	return "Combined data along " + name + " axis using uvio."
}

func joinNatural(parts []string) string {
	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
	}
}
