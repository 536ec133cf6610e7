package services

// Event kinds pushed over the live-connection layer by the trade and
// review engines. Names are part of the wire contract with clients.
const (
	EventTradeRequestReceived  = "TRADE_REQUEST_RECEIVED"
	EventTradeRequestAccepted  = "TRADE_REQUEST_ACCEPTED"
	EventTradeRequestRejected  = "TRADE_REQUEST_REJECTED"
	EventTradeRequestCompleted = "TRADE_REQUEST_COMPLETED"
	EventTradeMarkedComplete   = "TRADE_MARKED_COMPLETE"
	EventReviewReceived        = "REVIEW_RECEIVED"
)

// Notifier performs a single best-effort delivery attempt to a currently
// connected user. Delivery failure is never an error for the triggering
// operation; there is no durable queue behind this interface, though one
// could be substituted without touching the engines.
type Notifier interface {
	Dispatch(userID string, event string, payload interface{}) bool
}

// TradeNotification is the payload for trade lifecycle events.
type TradeNotification struct {
	TradeID       string `json:"tradeId"`
	UserID        string `json:"userId"`
	UserName      string `json:"userName"`
	UserAvatar    string `json:"userAvatar,omitempty"`
	SenderSkill   string `json:"senderSkill,omitempty"`
	ReceiverSkill string `json:"receiverSkill,omitempty"`
	Message       string `json:"message,omitempty"`
	Status        string `json:"status"`
}

// ReviewNotification is the payload for REVIEW_RECEIVED events.
type ReviewNotification struct {
	TradeID        string `json:"tradeId"`
	ReviewerID     string `json:"reviewerId"`
	ReviewerName   string `json:"reviewerName"`
	ReviewerAvatar string `json:"reviewerAvatar,omitempty"`
	Rating         int    `json:"rating"`
}
