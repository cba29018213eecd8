package server

// HTTPError is the JSON error envelope returned by the unified error handler.
type HTTPError struct {
	Error string `json:"error"`
}

// AuthSignupRequest is the payload for POST /api/auth/signup.
type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthLoginRequest is the payload for POST /api/auth/login.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries the issued session token.
type TokenResponse struct {
	Token string `json:"token"`
}

// ResearchRequest is the payload for POST /api/research.
type ResearchRequest struct {
	Topic  string `json:"topic"`
	Ticker string `json:"ticker"`
}

// WhitelistRequest is the payload for admin whitelist mutations.
type WhitelistRequest struct {
	Email string `json:"email"`
}
