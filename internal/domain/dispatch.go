package domain

// BulkSendRequest describes one bulk notification run. Either an explicit id
// list, a status filter, or neither (all entries) selects the recipients.
type BulkSendRequest struct {
	IDs    []string `json:"ids" validate:"omitempty,max=100"`
	Status string   `json:"status" validate:"omitempty,oneof=pending verified approved rejected"`

	Title      string   `json:"title" validate:"required,max=200"`
	Content    string   `json:"content" validate:"required,max=10000"`
	Highlights []string `json:"highlights" validate:"omitempty,max=10,dive,max=300"`
}

// DispatchResult accounts for one bulk notification run. Succeeded+Failed
// always equals the number of recipients attempted.
type DispatchResult struct {
	Succeeded        int      `json:"succeeded"`
	Failed           int      `json:"failed"`
	FailedRecipients []string `json:"failed_recipients,omitempty"`
}
