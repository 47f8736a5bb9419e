package server

import (
	"encoding/json"
)

// Error is the single-string failure body returned on every error path.
type Error struct {
	Detail string `json:"detail"`
}

func (se Error) ToJSON() []byte {
	b, err := json.Marshal(se)
	if err != nil {
		se.Detail = err.Error()

		b, err := json.Marshal(se)
		if err != nil {
			return []byte(`{
				"detail": "marshal error"
			  }`)
		}

		return b
	}

	return b
}
