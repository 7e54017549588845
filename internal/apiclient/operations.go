package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/starford/raido/internal/models"
)

// LoginRequest is the credential payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token and identity returned on login.
type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// NoteRequest is the body for note create and update calls.
type NoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me fetches the identity bound to the current token.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Tenant fetches tenant metadata by id.
func (c *Client) Tenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := c.do(ctx, http.MethodGet, "/tenants/"+url.PathEscape(tenantID), nil, &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}

// UpgradeTenant requests a plan upgrade for the tenant.
func (c *Client) UpgradeTenant(ctx context.Context, tenantID string) error {
	return c.do(ctx, http.MethodPost, "/tenants/"+url.PathEscape(tenantID)+"/upgrade", nil, nil)
}

// ListNotes fetches all notes in the caller's tenant scope.
func (c *Client) ListNotes(ctx context.Context) ([]models.Note, error) {
	var notes []models.Note
	if err := c.do(ctx, http.MethodGet, "/notes", nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// CreateNote creates a note. The confirmed note is discarded by callers that
// resynchronize via ListNotes, but returned here for completeness.
func (c *Client) CreateNote(ctx context.Context, title, content string) (*models.Note, error) {
	var note models.Note
	if err := c.do(ctx, http.MethodPost, "/notes", NoteRequest{Title: title, Content: content}, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// UpdateNote replaces a note's title and content.
func (c *Client) UpdateNote(ctx context.Context, id, title, content string) (*models.Note, error) {
	var note models.Note
	if err := c.do(ctx, http.MethodPut, "/notes/"+url.PathEscape(id), NoteRequest{Title: title, Content: content}, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// DeleteNote deletes a note by id.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notes/"+url.PathEscape(id), nil, nil)
}
