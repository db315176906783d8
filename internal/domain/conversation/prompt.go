package conversation

import (
	"bytes"
	"strconv"
)

// PromptPresent reports whether raw holds a usable prompt value. Missing
// values and the JSON falsy values null, "", false and 0 do not count.
func PromptPresent(raw []byte) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}

	switch string(v) {
	case "null", "false", `""`:
		return false
	}

	if c := v[0]; c == '-' || (c >= '0' && c <= '9') {
		f, err := strconv.ParseFloat(string(v), 64)
		return err != nil || f != 0
	}
	return true
}
