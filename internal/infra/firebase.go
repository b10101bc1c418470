// README: Firebase Admin SDK initialisation and ID token verification.
package infra

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Identity is the verified caller behind a bearer token.
type Identity struct {
	UID   string
	Role  string
	Email string
}

// TokenVerifier turns a raw ID token into an Identity.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Identity, error)
}

type firebaseVerifier struct {
	client *auth.Client
}

// NewFirebaseVerifier uses credentialsFile when set, otherwise
// application-default credentials. projectID selects the token audience.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (TokenVerifier, error) {
	opts := []option.ClientOption{}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase app.Auth: %w", err)
	}
	return &firebaseVerifier{client: client}, nil
}

func (v *firebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return IdentityFromClaims(token.UID, token.Claims), nil
}

// IdentityFromClaims reads the custom "role" claim, defaulting to rider.
func IdentityFromClaims(uid string, claims map[string]interface{}) *Identity {
	id := &Identity{UID: uid, Role: "rider"}
	if r, ok := claims["role"].(string); ok && r != "" {
		id.Role = r
	}
	if e, ok := claims["email"].(string); ok {
		id.Email = e
	}
	return id
}
