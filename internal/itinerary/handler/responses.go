package handler

import (
	"encoding/base64"
	"encoding/json"

	"github.com/skip2/go-qrcode"

	"tourguard/internal/itinerary"
)

const qrSize = 256

type RegistrationResponse struct {
	TouristID      string  `json:"touristId"`
	Name           string  `json:"name"`
	TripStart      string  `json:"tripStart"`
	TripEnd        string  `json:"tripEnd"`
	ProofValue     string  `json:"proofValue"`
	TransactionRef *string `json:"transactionRef"`
	Mode           string  `json:"mode"`
	ExplorerURL    string  `json:"explorerUrl,omitempty"`
	QRPayload      string  `json:"qrPayload"`
	QRCode         string  `json:"qrCode,omitempty"`
}

type qrPayload struct {
	TouristID      string  `json:"touristId"`
	ProofValue     string  `json:"proofValue"`
	Mode           string  `json:"mode"`
	TransactionRef *string `json:"transactionRef"`
}

func FromRegistration(rec *itinerary.Registration) (RegistrationResponse, error) {
	payload, err := json.Marshal(qrPayload{
		TouristID:      rec.SubjectID,
		ProofValue:     rec.Value,
		Mode:           string(rec.Mode),
		TransactionRef: rec.TransactionRef,
	})
	if err != nil {
		return RegistrationResponse{}, err
	}
	return RegistrationResponse{
		TouristID:      rec.SubjectID,
		Name:           rec.DisplayName,
		TripStart:      rec.TripStart,
		TripEnd:        rec.TripEnd,
		ProofValue:     rec.Value,
		TransactionRef: rec.TransactionRef,
		Mode:           string(rec.Mode),
		ExplorerURL:    rec.ExplorerURL,
		QRPayload:      string(payload),
	}, nil
}

// renderQR returns the payload as a PNG data URI.
func renderQR(payload string) (string, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, qrSize)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
