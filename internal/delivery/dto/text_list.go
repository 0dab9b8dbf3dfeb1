package dto

import (
	"encoding/json"
	"errors"

	"medical-records/pkg/textlist"
)

// TextList accepts either a free-text string or an array of strings and
// holds the parsed entries.
type TextList []string

func (l *TextList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*l = textlist.Unique(text)
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.New("must be a string or an array of strings")
	}
	*l = textlist.Unique(items...)
	return nil
}
