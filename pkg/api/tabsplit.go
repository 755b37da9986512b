// Package api defines the tabsplit.v1 RPC surface: message types, procedure
// names and connect handler/client constructors.
package api

// Session is the wire form of a bill-splitting session.
type Session struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Status            string        `json:"status"`
	ServiceFeePercent float64       `json:"service_fee_percent"`
	DiscountAmount    float64       `json:"discount_amount"`
	Items             []Item        `json:"items"`
	Participants      []Participant `json:"participants"`
	CreatedAt         int64         `json:"created_at"`
	UpdatedAt         int64         `json:"updated_at"`
}

type Item struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Quantity    float64      `json:"quantity"`
	UnitPrice   float64      `json:"unit_price"`
	Assignments []Assignment `json:"assignments"`
}

type Assignment struct {
	ParticipantID string  `json:"participant_id"`
	Quantity      float64 `json:"quantity"`
}

type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ItemInput describes an item that has no ID yet.
type ItemInput struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// SessionSummary is one row of ListSessions.
type SessionSummary struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Status           string  `json:"status"`
	ItemCount        int     `json:"item_count"`
	ParticipantCount int     `json:"participant_count"`
	GrossTotal       float64 `json:"gross_total"`
	CreatedAt        int64   `json:"created_at"`
}

// SessionResponse is returned by every mutation.
type SessionResponse struct {
	Session *Session `json:"session"`
}

type CreateSessionRequest struct {
	Name         string      `json:"name"`
	Items        []ItemInput `json:"items"`
	Participants []string    `json:"participants"`
}

type GetSessionRequest struct {
	SessionID string `json:"session_id"`
}

type ListSessionsRequest struct{}

type ListSessionsResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

type DeleteSessionRequest struct {
	SessionID string `json:"session_id"`
}

type DeleteSessionResponse struct{}

// ConfigureSessionRequest replaces fee and discount. Name is left alone when nil.
type ConfigureSessionRequest struct {
	SessionID         string  `json:"session_id"`
	Name              *string `json:"name,omitempty"`
	ServiceFeePercent float64 `json:"service_fee_percent"`
	DiscountAmount    float64 `json:"discount_amount"`
}

type AddItemRequest struct {
	SessionID string  `json:"session_id"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type AddItemResponse struct {
	ItemID  string   `json:"item_id"`
	Session *Session `json:"session"`
}

type EditItemRequest struct {
	SessionID string  `json:"session_id"`
	ItemID    string  `json:"item_id"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type RemoveItemRequest struct {
	SessionID string `json:"session_id"`
	ItemID    string `json:"item_id"`
}

type AddParticipantRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

type AddParticipantResponse struct {
	ParticipantID string   `json:"participant_id"`
	Session       *Session `json:"session"`
}

type RemoveParticipantRequest struct {
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
}

// AssignItemRequest replaces the whole distribution of one item.
type AssignItemRequest struct {
	SessionID string       `json:"session_id"`
	ItemID    string       `json:"item_id"`
	Shares    []Assignment `json:"shares"`
}

type FinalizeSessionRequest struct {
	SessionID string `json:"session_id"`
}

type ReopenSessionRequest struct {
	SessionID string `json:"session_id"`
}

type GetSettlementRequest struct {
	SessionID string `json:"session_id"`
}

type ConsumedItem struct {
	ItemID          string  `json:"item_id"`
	ItemName        string  `json:"item_name"`
	Quantity        float64 `json:"quantity"`
	Value           float64 `json:"value"`
	DiscountApplied float64 `json:"discount_applied"`
}

type PersonSettlement struct {
	ParticipantID   string         `json:"participant_id"`
	Name            string         `json:"name"`
	Subtotal        float64        `json:"subtotal"`
	DiscountShare   float64        `json:"discount_share"`
	ServiceFeeShare float64        `json:"service_fee_share"`
	Total           float64        `json:"total"`
	PercentOfBill   float64        `json:"percent_of_bill"`
	Items           []ConsumedItem `json:"items"`
}

type GetSettlementResponse struct {
	People             []PersonSettlement `json:"people"`
	PercentDistributed float64            `json:"percent_distributed"`
	ItemsIncomplete    int                `json:"items_incomplete"`
	GrossTotal         float64            `json:"gross_total"`
	NetAfterDiscount   float64            `json:"net_after_discount"`
	ServiceFeeTotal    float64            `json:"service_fee_total"`
	GrandTotal         float64            `json:"grand_total"`
	// OvercommittedItemIDs lists items assigned beyond their quantity.
	OvercommittedItemIDs []string `json:"overcommitted_item_ids,omitempty"`
}

// ScanReceiptRequest carries a raw receipt photo. Image is base64 in JSON.
type ScanReceiptRequest struct {
	Filename string `json:"filename"`
	Image    []byte `json:"image"`
}

// ScanReceiptResponse reports Success=false with Error set when extraction
// failed; the upload itself was acceptable.
type ScanReceiptResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Items   []ItemInput `json:"items"`
}

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by Register and Login.
type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}
