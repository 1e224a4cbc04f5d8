package http

import (
	"github.com/nulljobs-api/internal/infrastructure/dynamo"
	googleinfra "github.com/nulljobs-api/internal/infrastructure/google"
	jwtinfra "github.com/nulljobs-api/internal/infrastructure/jwt"
	"github.com/nulljobs-api/internal/infrastructure/smtp"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo     *dynamo.UserRepo
	DenylistRepo *dynamo.DenylistRepo
	Mailer       smtp.Mailer
	JWTProvider  *jwtinfra.Provider
	Google       *googleinfra.Verifier
}
