package types

// PaymentDetails captures the instrument the customer paid with. Only the
// fields relevant to the chosen method are populated.
type PaymentDetails struct {
	CardLast4     string `json:"cardLast4,omitempty"`
	CardBrand     string `json:"cardBrand,omitempty"`
	CardType      string `json:"cardType,omitempty"`
	UPIID         string `json:"upiId,omitempty"`
	UPIApp        string `json:"upiApp,omitempty"`
	WalletName    string `json:"walletName,omitempty"`
	WalletPhone   string `json:"walletPhone,omitempty"`
	BankName      string `json:"bankName,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	SourceID      string `json:"sourceId,omitempty"`
}
