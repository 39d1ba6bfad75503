package socket

// request is a client frame. Type is "listen" or "unlisten".
type request struct {
	Type     string   `json:"type"`
	Channels []string `json:"channels"`
}
