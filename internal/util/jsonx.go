package util

import (
	"encoding/json"
	"regexp"
)

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSONObject pulls the first JSON object out of free-form model
// output. Models wrap structured answers in prose or code fences often
// enough that a plain Unmarshal of the raw text is unreliable.
func ExtractJSONObject(s string) (string, bool) {
	match := jsonObjectRe.FindString(s)
	if match == "" {
		return "", false
	}
	if !json.Valid([]byte(match)) {
		return "", false
	}
	return match, true
}
