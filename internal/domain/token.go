package domain

// TokenPair is a full session credential: a short-lived access token carrying
// identity claims and a rotation-aware refresh token.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// DeniedToken marks a refresh token jti as unusable, either because it was
// rotated or because the session was logged out. ExpiresAt matches the
// token's own expiry and doubles as the DynamoDB TTL, so entries disappear
// once the token they block is dead anyway.
type DeniedToken struct {
	JTI       string `json:"jti" dynamodbav:"jti"`
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}
