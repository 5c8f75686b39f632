package domain

// TokenPair is the access/refresh credential pair issued by the backend.
// An empty string means the token is absent.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Empty reports whether neither token is set.
func (p TokenPair) Empty() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// Credentials is the login payload accepted by the auth endpoint.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
