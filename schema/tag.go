package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// TagName is the struct tag key read by Describe.
const TagName = "litemap"

// tag holds the parsed options of a `litemap` struct tag.
type tag struct {
	skip    bool
	name    string
	pk      bool
	autoinc bool
	notnull bool
	unique  bool
	collate string
	def     string
	hasDef  bool
	size    int
	sqlType string
	indexes []tagIndex
}

// tagIndex is one index membership declared on a field.
type tagIndex struct {
	name  string // empty means a single column index
	order int
}

func parseTag(s string) (tag, error) {
	var t tag
	if s == "-" {
		t.skip = true
		return t, nil
	}
	if s == "" {
		return t, nil
	}
	parts := strings.Split(s, ",")
	t.name = strings.TrimSpace(parts[0])
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		key, value, hasValue := strings.Cut(p, "=")
		switch strings.ToLower(key) {
		case "":
		case "pk":
			t.pk = true
		case "autoinc":
			t.autoinc = true
		case "notnull":
			t.notnull = true
		case "unique":
			t.unique = true
		case "collate":
			if value == "" {
				return t, fmt.Errorf("collate requires a value")
			}
			t.collate = value
		case "default":
			t.def, t.hasDef = value, true
		case "size":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return t, fmt.Errorf("invalid size %q", value)
			}
			t.size = n
		case "type":
			if value == "" {
				return t, fmt.Errorf("type requires a value")
			}
			t.sqlType = value
		case "index":
			idx := tagIndex{}
			if hasValue {
				name, order, ok := strings.Cut(value, ":")
				idx.name = name
				if ok {
					n, err := strconv.Atoi(order)
					if err != nil {
						return t, fmt.Errorf("invalid index order %q", order)
					}
					idx.order = n
				}
			}
			t.indexes = append(t.indexes, idx)
		default:
			return t, fmt.Errorf("unknown tag option %q", key)
		}
	}
	return t, nil
}
