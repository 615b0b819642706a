package models

import (
	"encoding/json"
	"sort"
)

// I18nString is a server-side localized string. The API delivers these either
// as a plain string or as a language-code keyed object; both forms decode
// into the same type.
type I18nString map[string]string

func (s *I18nString) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*s = I18nString{"en": plain}
		return nil
	}

	var localized map[string]string
	if err := json.Unmarshal(data, &localized); err != nil {
		return err
	}
	*s = localized
	return nil
}

func (s I18nString) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string(s))
}

// String returns the English translation when present, otherwise the first
// translation in language-code order, otherwise "".
func (s I18nString) String() string {
	if v, ok := s["en"]; ok && v != "" {
		return v
	}

	langs := make([]string, 0, len(s))
	for lang := range s {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	for _, lang := range langs {
		if s[lang] != "" {
			return s[lang]
		}
	}
	return ""
}
