package catalog

import "strings"

// column aliases, matched case-insensitively against header names.
var columnAliases = map[string][]string{
	"title":     {"book-title", "title"},
	"authors":   {"book-author", "authors", "author"},
	"year":      {"year-of-publication", "year"},
	"publisher": {"publisher"},
	"image_url": {"image-url-m", "image_url"},
}

// columnIndex maps logical column names to header positions (-1 if absent).
type columnIndex map[string]int

func resolveColumns(header []string) columnIndex {
	idx := columnIndex{}
	for logical := range columnAliases {
		idx[logical] = -1
	}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for logical, aliases := range columnAliases {
			if idx[logical] >= 0 {
				continue
			}
			for _, a := range aliases {
				if name == a {
					idx[logical] = i
					break
				}
			}
		}
	}
	return idx
}

// missingRequired returns the first required column absent from idx.
func (c columnIndex) missingRequired() string {
	for _, name := range []string{"title", "authors", "year"} {
		if c[name] < 0 {
			return name
		}
	}
	return ""
}

func (c columnIndex) field(record []string, name string) string {
	i := c[name]
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
