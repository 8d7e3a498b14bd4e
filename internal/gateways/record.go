package gateways

import (
	"encoding/json"
	"fmt"

	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
)

// Record is what payments.webhook_data holds: the decoded client callback
// and the provider's own payload, tagged with the gateway that produced them.
type Record struct {
	Gateway  enums.PaymentGateway `json:"gateway"`
	Callback Callback             `json:"callback,omitempty"`
	Provider json.RawMessage      `json:"provider,omitempty"`
}

// NewRecord encodes a record. Provider bytes that are not JSON are kept as a
// JSON string.
func NewRecord(gateway enums.PaymentGateway, callback Callback, provider []byte) (json.RawMessage, error) {
	if callback != nil && callback.Gateway() != gateway {
		return nil, mismatchedCallback(gateway, callback)
	}
	rec := Record{Gateway: gateway, Callback: callback}
	if len(provider) > 0 {
		if json.Valid(provider) {
			rec.Provider = json.RawMessage(provider)
		} else {
			quoted, err := json.Marshal(string(provider))
			if err != nil {
				return nil, err
			}
			rec.Provider = quoted
		}
	}
	return json.Marshal(rec)
}

// ParseRecord decodes stored webhook_data back into its callback variant.
func ParseRecord(raw json.RawMessage) (*Record, error) {
	var stored struct {
		Gateway  enums.PaymentGateway `json:"gateway"`
		Callback json.RawMessage      `json:"callback"`
		Provider json.RawMessage      `json:"provider"`
	}
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode gateway record: %w", err)
	}
	if !stored.Gateway.IsValid() {
		return nil, fmt.Errorf("gateway record has unknown gateway %q", stored.Gateway)
	}
	rec := &Record{Gateway: stored.Gateway, Provider: stored.Provider}
	if len(stored.Callback) > 0 {
		cb, err := DecodeCallback(stored.Gateway, stored.Callback)
		if err != nil {
			return nil, err
		}
		rec.Callback = cb
	}
	return rec, nil
}
