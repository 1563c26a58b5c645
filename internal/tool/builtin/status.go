package builtin

import "encoding/json"

type statusPayload struct {
	Status string      `json:"status"`
	Entry  interface{} `json:"entry,omitempty"`
}

func success(entry interface{}) (json.RawMessage, error) {
	return json.Marshal(statusPayload{Status: "success", Entry: entry})
}
