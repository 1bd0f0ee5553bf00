package models

// LoginRequest is the body of the login action.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshTokenRequest is the body of the token refresh action.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenPair is returned by both the login and the refresh action.
type TokenPair struct {
	AuthToken    string `json:"authToken"`
	RefreshToken string `json:"refreshToken"`
}
