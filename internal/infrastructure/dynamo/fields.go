package dynamo

// DynamoDB attribute names used in key and update expressions across repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID    = "user_id"
	fieldUsername  = "username"
	fieldEmail     = "email"
	fieldEnable    = "enable"
	fieldDeletedAt = "deleted_at"
	fieldUpdatedAt = "updated_at"
	fieldOTPSecret = "otp_secret"
	fieldJTI       = "jti"
	fieldExpiresAt = "expires_at"
)

// GSI names on the users table.
const (
	usernameIndex = "username-index"
	emailIndex    = "email-index"
)
