package userinfo

import (
	"encoding/json"
	"strconv"
	"strings"
)

// The flex types decode the JSON shapes extraction models actually produce
// rather than the shapes the prompt asks for: numbers arrive quoted, strings
// arrive as bare numbers, lists arrive as a single string. A value of the
// wrong shape decodes to the zero value instead of failing the whole object.

// FlexInt decodes JSON numbers and quoted numbers alike.
type FlexInt int

// UnmarshalJSON implements tolerant decoding into an int.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	*f = 0

	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*f = FlexInt(n)
	}
	return nil
}

// FlexString decodes JSON strings and bare scalar tokens to a string. Null,
// objects and arrays decode to the empty string.
type FlexString string

// UnmarshalJSON implements tolerant decoding into a string.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	*f = ""

	token := strings.TrimSpace(string(data))
	if token == "" || token == "null" {
		return nil
	}

	switch token[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*f = FlexString(s)
		}
	case '{', '[':
	default:
		*f = FlexString(token)
	}
	return nil
}

// FlexStrings decodes a JSON string array, a single string, or null. Empty
// entries are dropped.
type FlexStrings []string

// UnmarshalJSON implements tolerant decoding into a string slice.
func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	*f = nil

	token := strings.TrimSpace(string(data))
	if token == "" || token == "null" {
		return nil
	}

	switch token[0] {
	case '[':
		var items []FlexString
		if err := json.Unmarshal(data, &items); err != nil {
			return nil
		}
		for _, item := range items {
			if item != "" {
				*f = append(*f, string(item))
			}
		}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil && s != "" {
			*f = FlexStrings{s}
		}
	}
	return nil
}
