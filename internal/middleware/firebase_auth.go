package middleware

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/playmaker/backend/internal/models"
)

// TokenVerifier verifies Firebase ID tokens; *auth.Client implements it
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseUserResolver maps a Firebase UID to the local account
type FirebaseUserResolver interface {
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
}

type firebaseAuthenticator struct {
	verifier TokenVerifier
	users    FirebaseUserResolver
}

// WithFirebase makes the authenticator accept Firebase ID tokens of users that already
// signed in through /auth/firebase-login
func (a *Authenticator) WithFirebase(verifier TokenVerifier, users FirebaseUserResolver) *Authenticator {
	if verifier != nil && users != nil {
		a.firebase = &firebaseAuthenticator{verifier: verifier, users: users}
	}
	return a
}

func (f *firebaseAuthenticator) authenticate(ctx context.Context, idToken string) (*models.JwtCustomClaims, error) {
	token, err := f.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("invalid or expired ID token: %w", err)
	}
	user, err := f.users.GetUserByFirebaseUID(ctx, token.UID)
	if err != nil {
		return nil, fmt.Errorf("firebase user %s is not registered: %w", token.UID, err)
	}
	return &models.JwtCustomClaims{UserID: user.ID, Email: user.Email}, nil
}
