package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GoTrueProvider talks to the managed backend's auth REST API.
type GoTrueProvider struct {
	baseURL string
	anonKey string
	client  *http.Client
	clock   func() time.Time
}

func NewGoTrueProvider(baseURL, anonKey string, client *http.Client) *GoTrueProvider {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &GoTrueProvider{
		baseURL: strings.TrimRight(baseURL, "/") + "/auth/v1",
		anonKey: anonKey,
		client:  client,
		clock:   time.Now,
	}
}

type gotrueUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (u gotrueUser) toUser() User {
	out := User{ID: u.ID, Email: u.Email}
	if v, ok := u.UserMetadata["company_name"].(string); ok {
		out.CompanyName = v
	}
	return out
}

type gotrueToken struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int        `json:"expires_in"`
	ExpiresAt    int64      `json:"expires_at"`
	User         gotrueUser `json:"user"`
}

// gotrueError covers both the OAuth style and the newer msg style bodies.
type gotrueError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e gotrueError) message() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (p *GoTrueProvider) SignInWithPassword(ctx context.Context, email, password string) (ProviderSession, error) {
	var tok gotrueToken
	body := map[string]string{"email": email, "password": password}
	if err := p.do(ctx, http.MethodPost, "/token?grant_type=password", "", body, &tok); err != nil {
		return ProviderSession{}, err
	}
	return p.session(tok), nil
}

func (p *GoTrueProvider) RefreshSession(ctx context.Context, refreshToken string) (ProviderSession, error) {
	var tok gotrueToken
	body := map[string]string{"refresh_token": refreshToken}
	if err := p.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body, &tok); err != nil {
		return ProviderSession{}, err
	}
	return p.session(tok), nil
}

func (p *GoTrueProvider) SignOut(ctx context.Context, accessToken string) error {
	return p.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

func (p *GoTrueProvider) GetUser(ctx context.Context, accessToken string) (User, error) {
	var u gotrueUser
	if err := p.do(ctx, http.MethodGet, "/user", accessToken, nil, &u); err != nil {
		return User{}, err
	}
	return u.toUser(), nil
}

func (p *GoTrueProvider) UpdateUser(ctx context.Context, accessToken string, metadata map[string]any) (User, error) {
	var u gotrueUser
	body := map[string]any{"data": metadata}
	if err := p.do(ctx, http.MethodPut, "/user", accessToken, body, &u); err != nil {
		return User{}, err
	}
	return u.toUser(), nil
}

func (p *GoTrueProvider) session(tok gotrueToken) ProviderSession {
	exp := p.clock().Add(time.Duration(tok.ExpiresIn) * time.Second)
	if tok.ExpiresAt > 0 {
		exp = time.Unix(tok.ExpiresAt, 0).UTC()
	}
	return ProviderSession{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    exp,
		User:         tok.User.toUser(),
	}
}

func (p *GoTrueProvider) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var reader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var ge gotrueError
		_ = json.Unmarshal(raw, &ge)
		pe := &ProviderError{Status: resp.StatusCode, Message: ge.message(), kind: ErrProvider}
		// the token endpoint answers 400 for bad credentials
		if strings.HasPrefix(path, "/token?grant_type=password") && (resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized) {
			pe.kind = ErrInvalidCredentials
		}
		return pe
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrProvider, err)
	}
	return nil
}
