package dto

// AuthRequest describes login/password payload. AdminSecret is only read on registration.
type AuthRequest struct {
	Login       string `json:"login"`
	Password    string `json:"password"`
	AdminSecret string `json:"adminSecret,omitempty"`
}
