package dto

type TicketRequest struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Category    string `json:"category"` // issue type, e.g. "Bug"
}

type CreatedTicket struct {
	Signature string `json:"signature"`
	ID        string `json:"id"`
	URL       string `json:"url,omitempty"`
}

type TicketFailure struct {
	Signature string `json:"signature"`
	Error     string `json:"error"`
}

type Notification struct {
	Text        string  `json:"text"`
	Destination *string `json:"destination,omitempty"`
}
