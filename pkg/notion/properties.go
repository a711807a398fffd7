package notion

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jomei/notionapi"
)

// BuildProperties converts a flat field map into Notion page properties.
// titleKey becomes the title property. Numeric values become number
// properties, http(s) strings become URL properties, string slices become
// multi-select, and everything else is stored as rich text. Empty strings
// are skipped since Notion rejects empty URL values.
func BuildProperties(titleKey string, fields map[string]any) notionapi.Properties {
	props := make(notionapi.Properties, len(fields))
	for k, v := range fields {
		if k == titleKey {
			props[k] = notionapi.TitleProperty{
				Type:  notionapi.PropertyTypeTitle,
				Title: richText(fmt.Sprint(v)),
			}
			continue
		}

		switch val := v.(type) {
		case nil:
		case int:
			props[k] = notionapi.NumberProperty{Type: notionapi.PropertyTypeNumber, Number: float64(val)}
		case float64:
			props[k] = notionapi.NumberProperty{Type: notionapi.PropertyTypeNumber, Number: val}
		case []string:
			opts := make([]notionapi.Option, 0, len(val))
			for _, s := range val {
				opts = append(opts, notionapi.Option{Name: s})
			}
			props[k] = notionapi.MultiSelectProperty{Type: notionapi.PropertyTypeMultiSelect, MultiSelect: opts}
		case string:
			if val == "" {
				continue
			}
			if strings.HasPrefix(val, "http://") || strings.HasPrefix(val, "https://") {
				props[k] = notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: val}
				continue
			}
			props[k] = notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: richText(val)}
		default:
			props[k] = notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: richText(fmt.Sprint(val))}
		}
	}
	return props
}

const maxRichText = 2000

func richText(s string) []notionapi.RichText {
	// Notion caps a single rich text object at 2000 characters.
	if utf8.RuneCountInString(s) > maxRichText {
		s = string([]rune(s)[:maxRichText])
	}
	return []notionapi.RichText{
		{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}},
	}
}
