package zendesk

import "encoding/json"

// listEnvelope is the body of every collection endpoint.
type listEnvelope struct {
	Items []itemEnvelope `json:"items"`
	Meta  listMeta       `json:"meta"`
}

type listMeta struct {
	Type  string    `json:"type"`
	Count int       `json:"count"`
	Links listLinks `json:"links"`
}

type listLinks struct {
	Self     string `json:"self"`
	NextPage string `json:"next_page"`
}

// itemEnvelope wraps one resource, in lists and single-resource responses.
type itemEnvelope struct {
	Data map[string]any `json:"data"`
	Meta itemMeta       `json:"meta"`
}

type itemMeta struct {
	Type string    `json:"type"`
	Sync *syncMeta `json:"sync,omitempty"`
}

// syncMeta is present on Sync API queue items.
type syncMeta struct {
	EventType string      `json:"event_type"`
	AckKey    string      `json:"ack_key"`
	Revision  json.Number `json:"revision"`
}

// sessionEnvelope is the body of POST /v2/sync/start.
type sessionEnvelope struct {
	Data struct {
		ID     string `json:"id"`
		Queues []struct {
			Data struct {
				Name  string `json:"name"`
				Pages int    `json:"pages"`
			} `json:"data"`
		} `json:"queues"`
	} `json:"data"`
}

// ackRequest is the body of POST /v2/sync/ack.
type ackRequest struct {
	Data struct {
		AckKeys []string `json:"ack_keys"`
	} `json:"data"`
}

// customField is one entry of GET /v2/{resource}/custom_fields.
type customField struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
	Type string      `json:"type"`
}

// metaMap renders item metadata as a record field.
func (m itemMeta) metaMap() map[string]any {
	out := map[string]any{"type": m.Type}
	if m.Sync != nil {
		sync := map[string]any{
			"event_type": m.Sync.EventType,
			"ack_key":    m.Sync.AckKey,
			"revision":   nil,
		}
		if m.Sync.Revision != "" {
			sync["revision"] = m.Sync.Revision
		}
		out["sync"] = sync
	}
	return out
}
