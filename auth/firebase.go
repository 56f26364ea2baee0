package auth

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go"
	fbauth "firebase.google.com/go/auth"
	"google.golang.org/api/option"
)

// GoogleIdentity is what a verified Google sign-in tells us about the user.
type GoogleIdentity struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

var ErrInvalidIDToken = errors.New("invalid Google ID token")

type tokenVerifier interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*fbauth.Token, error)
}

type FirebaseVerifier struct {
	client    tokenVerifier
	projectID string
}

func NewFirebaseVerifier(ctx context.Context, projectID, credentialsJSON string) (*FirebaseVerifier, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsJSON([]byte(credentialsJSON)))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return &FirebaseVerifier{client: client, projectID: projectID}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	token, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	if token.Audience != v.projectID {
		return nil, fmt.Errorf("%w: audience %q", ErrInvalidIDToken, token.Audience)
	}
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: no email claim", ErrInvalidIDToken)
	}
	verified, _ := token.Claims["email_verified"].(bool)
	name, _ := token.Claims["name"].(string)
	picture, _ := token.Claims["picture"].(string)
	return &GoogleIdentity{
		UID:           token.UID,
		Email:         email,
		EmailVerified: verified,
		Name:          name,
		Picture:       picture,
	}, nil
}
