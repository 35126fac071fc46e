package logbook

import "encoding/json"

// differs reports whether a and b marshal to different JSON, the cheapest
// correct equality check across the mix of pointers, slices, and maps that
// make up Entry/Logbook fields ("changed = {field →
// old_value | new_value differs}").
func differs(a, b interface{}) bool {
	ab, _ := json.Marshal(a)
	bb, _ := json.Marshal(b)
	return string(ab) != string(bb)
}
