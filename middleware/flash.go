package middleware

import (
	"net/http"
)

const (
	FlashInfo    = "info"
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SetFlash queues a notice for the next page the browser loads.
func (s *Sessions) SetFlash(w http.ResponseWriter, kind, message string) {
	encoded, err := s.codec.Encode(FlashCookie, Flash{Kind: kind, Message: message})
	if err != nil {
		return
	}
	http.SetCookie(w, s.cookie(FlashCookie, encoded, 60))
}

// PopFlash returns the queued notice and clears it.
func (s *Sessions) PopFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(FlashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, s.cookie(FlashCookie, "", -1))

	var f Flash
	if err := s.codec.Decode(FlashCookie, c.Value, &f); err != nil {
		return nil
	}
	return &f
}
