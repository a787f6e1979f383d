package wizard

import "net/url"

// MergeStepValues folds the values posted for one step into the draft that
// holds every step's values. Names owned by the step are replaced wholesale so
// an unchecked checkbox clears its earlier value. File and hidden fields keep
// their draft value when the post omits them, unless the name is shared with a
// field that does not.
func MergeStepValues(step Step, draft, posted url.Values) url.Values {
	merged := make(url.Values, len(draft)+len(posted))
	for name, vals := range draft {
		merged[name] = append([]string(nil), vals...)
	}

	retain := make(map[string]bool)
	for _, f := range step.Fields {
		if !f.isControl() {
			continue
		}
		if f.retainsValue() {
			if _, seen := retain[f.Name]; !seen {
				retain[f.Name] = true
			}
			continue
		}
		retain[f.Name] = false
	}

	for name, keep := range retain {
		vals, ok := posted[name]
		if keep && (!ok || firstNonEmpty(vals) == "") {
			continue
		}
		delete(merged, name)
		if ok {
			merged[name] = append([]string(nil), vals...)
		}
	}
	return merged
}
