package lemonsqueezywebhook

import (
	"encoding/json"

	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
)

// EventOrderCreated is the only event this service acts on.
const EventOrderCreated = "order_created"

// Event is the provider webhook envelope, trimmed to what the handler reads.
type Event struct {
	Meta struct {
		EventName string `json:"event_name"`
	} `json:"meta"`
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			CustomerEmail  string          `json:"customer_email"`
			TotalFormatted string          `json:"total_formatted"`
			CheckoutData   json.RawMessage `json:"checkout_data"`
		} `json:"attributes"`
	} `json:"data"`
}

// CheckoutData is the custom payload echoed back from checkout creation.
type CheckoutData struct {
	BeatID        string   `json:"beatId"`
	LicenseID     string   `json:"licenseId"`
	AddonIDs      []string `json:"addonIds"`
	DownloadToken string   `json:"downloadToken"`
}

// ParseEvent decodes the raw webhook body.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook payload")
	}
	if event.Meta.EventName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event name missing")
	}
	if event.Data.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id missing")
	}
	return &event, nil
}

// ParseCheckoutData decodes the nested checkout payload.
func (e *Event) ParseCheckoutData() (*CheckoutData, error) {
	if len(e.Data.Attributes.CheckoutData) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout data missing")
	}
	var data CheckoutData
	if err := json.Unmarshal(e.Data.Attributes.CheckoutData, &data); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout data")
	}
	if data.BeatID == "" || data.LicenseID == "" || data.DownloadToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout data incomplete")
	}
	return &data, nil
}
