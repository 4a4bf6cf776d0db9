package session

import (
	"context"
	"fmt"
	"time"
)

// Credential is the bearer token a session holds for one principal kind
type Credential struct {
	Token       string    `json:"token"`
	Kind        string    `json:"kind"`
	PrincipalID string    `json:"principal_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Credentials keeps one canonical credential per principal kind per session.
// A session can hold a buyer and a seller credential side by side.
type Credentials struct {
	store Store
	now   func() time.Time
}

// NewCredentials creates a credential store on top of a key-value slot
func NewCredentials(store Store) *Credentials {
	return &Credentials{store: store, now: time.Now}
}

func credentialKey(sessionID, kind string) string {
	return fmt.Sprintf("session:%s:credential:%s", sessionID, kind)
}

// Get returns the session's credential for kind, or nil when none is stored
func (c *Credentials) Get(ctx context.Context, sessionID, kind string) (*Credential, error) {
	var cred Credential
	found, err := c.store.GetJSON(ctx, credentialKey(sessionID, kind), &cred)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &cred, nil
}

// Set replaces the session's credential for cred.Kind. The slot expires with the token.
func (c *Credentials) Set(ctx context.Context, sessionID string, cred Credential) error {
	ttl := cred.ExpiresAt.Sub(c.now())
	if ttl <= 0 {
		return fmt.Errorf("credential for %s already expired", cred.Kind)
	}
	return c.store.SetJSON(ctx, credentialKey(sessionID, cred.Kind), cred, ttl)
}

// Clear drops the session's credential for kind
func (c *Credentials) Clear(ctx context.Context, sessionID, kind string) error {
	return c.store.Del(ctx, credentialKey(sessionID, kind))
}
