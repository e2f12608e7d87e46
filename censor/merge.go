package censor

// MergeParts folds parts sharing a merge group into the first part of the group
// (in detection order) and flags it merged. Absorbed parts are dropped from the returned list.
// Parts without merge group pass through untouched.
func MergeParts(parts []*Part) []*Part {
	absorbed := make([]bool, len(parts))
	merged := make([]*Part, 0, len(parts))
	for i, primary := range parts {
		if absorbed[i] {
			continue
		}
		merged = append(merged, primary)
		if len(primary.MergeGroup) == 0 {
			continue
		}
		for j := i + 1; j < len(parts); j++ {
			if absorbed[j] {
				continue
			}
			secondary := parts[j]
			if !primary.InMergeGroup(secondary.Label) {
				continue
			}
			// Raw shape of the sibling, not whatever it may have absorbed
			primary.baseMasks = append(primary.baseMasks, secondary.baseMasks[0])
			primary.Region = primary.Region.Union(secondary.Region)
			absorbed[j] = true
		}
		// A lone member is unioned with itself only, still flagged merged
		for _, base := range primary.baseMasks {
			primary.mask.Add(base)
		}
		primary.IsMerged = true
	}
	return merged
}
