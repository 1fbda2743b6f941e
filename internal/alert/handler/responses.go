package handler

import "tourguard/internal/alert"

type PanicResponse struct {
	Status  string           `json:"status"`
	Message string           `json:"message"`
	Data    alert.PanicAlert `json:"data"`
}

func FromAlert(a *alert.PanicAlert) PanicResponse {
	return PanicResponse{
		Status:  "success",
		Message: "Panic alert received",
		Data:    *a,
	}
}
