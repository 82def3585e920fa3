package firebase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// App bundles the Firebase app with the auth client used to verify ID tokens on login
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
	ProjectID   string
}

type serviceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
}

// InitFirebase loads a service account key and builds the auth client behind Firebase login.
func InitFirebase(ctx context.Context, credentialsPath string, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if credentialsPath == "" {
		return nil, errors.New("firebase credentials path not provided")
	}

	raw, err := os.ReadFile(credentialsPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}
	if err != nil {
		return nil, fmt.Errorf("reading firebase credentials: %w", err)
	}

	account, err := parseServiceAccount(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid firebase credentials at %s: %w", credentialsPath, err)
	}

	firebaseApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: account.ProjectID}, option.WithCredentialsJSON(raw))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	logger.Info("firebase auth client ready",
		zap.String("project", account.ProjectID),
		zap.String("account", account.ClientEmail))
	return &App{FirebaseApp: firebaseApp, AuthClient: authClient, ProjectID: account.ProjectID}, nil
}

func parseServiceAccount(raw []byte) (serviceAccount, error) {
	var account serviceAccount
	if err := json.Unmarshal(raw, &account); err != nil {
		return account, fmt.Errorf("malformed JSON: %w", err)
	}
	if account.Type != "service_account" {
		return account, fmt.Errorf("unexpected credential type %q", account.Type)
	}
	if account.ProjectID == "" {
		return account, errors.New("project_id missing")
	}
	return account, nil
}
