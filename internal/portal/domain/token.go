package domain

// TokenPair is the signed credential pair handed to a client after login
// or refresh. Both values also travel as httpOnly cookies; the JSON body
// mirrors them for non-browser clients.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
