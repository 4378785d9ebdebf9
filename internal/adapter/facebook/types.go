package facebook

// Wire shapes of the Graph API responses this client consumes. Only the
// fields the audit engine reads are declared.

type errorEnvelope struct {
	Error *graphError `json:"error"`
}

type graphError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Subcode   int    `json:"error_subcode"`
	FBTraceID string `json:"fbtrace_id"`
}

type paging struct {
	Next string `json:"next"`
}

type adNode struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Status          string `json:"status"`
	EffectiveStatus string `json:"effective_status"`
}

type adList struct {
	Data   []adNode `json:"data"`
	Paging paging   `json:"paging"`
}

type campaignNode struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type action struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

type insightRow struct {
	Spend   string   `json:"spend"`
	Actions []action `json:"actions"`
}

type insightList struct {
	Data []insightRow `json:"data"`
}

type updateResult struct {
	Success bool `json:"success"`
}
