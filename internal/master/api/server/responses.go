package server

type TokenResponse struct {
	AccessToken string `json:"access_token"` //nolint:tagliatelle
	TokenType   string `json:"token_type"`   //nolint:tagliatelle
}

type MessageResponse struct {
	Message string `json:"message"`
}
