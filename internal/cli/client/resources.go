package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// GalleryItem is an uploaded photo
type GalleryItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// GalleryUpload is a new image plus its metadata
type GalleryUpload struct {
	Title       string
	Description string
	Category    string
	FileName    string
	Image       io.Reader
}

// GalleryUpdate edits metadata; the image itself cannot be replaced
type GalleryUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
}

// Message is a contact form submission
type Message struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Subject   string     `json:"subject"`
	Message   string     `json:"message"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	Notified  *time.Time `json:"notified_at"`
}

// MessageInput is the public contact form payload
type MessageInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// SiteSettings is the public site configuration
type SiteSettings struct {
	ID           string `json:"id"`
	SiteName     string `json:"site_name"`
	Tagline      string `json:"tagline"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Address      string `json:"address"`
	FacebookURL  string `json:"facebook_url"`
	InstagramURL string `json:"instagram_url"`
	TwitterURL   string `json:"twitter_url"`
}

// SiteSettingsUpdate changes the non-nil settings
type SiteSettingsUpdate struct {
	SiteName     *string `json:"site_name,omitempty"`
	Tagline      *string `json:"tagline,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	Address      *string `json:"address,omitempty"`
	FacebookURL  *string `json:"facebook_url,omitempty"`
	InstagramURL *string `json:"instagram_url,omitempty"`
	TwitterURL   *string `json:"twitter_url,omitempty"`
}

// TourType groups packages
type TourType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	IsActive    bool   `json:"is_active"`
	SortOrder   int    `json:"sort_order"`
}

// TourTypeInput creates (all fields) or updates (non-nil fields) a tour type
type TourTypeInput struct {
	Name        *string `json:"name,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	SortOrder   *int    `json:"sort_order,omitempty"`
}

// Package is a bookable travel package
type Package struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	TourTypeID   *string   `json:"tour_type_id"`
	Destination  string    `json:"destination"`
	Description  string    `json:"description"`
	PriceCents   int64     `json:"price_cents"`
	DurationDays int       `json:"duration_days"`
	ImageURL     string    `json:"image_url"`
	IsFeatured   bool      `json:"is_featured"`
	IsActive     bool      `json:"is_active"`
	TourType     *TourType `json:"tour_type,omitempty"`
}

// PackageInput creates or updates a package; nil fields are left to the server
type PackageInput struct {
	Title        *string `json:"title,omitempty"`
	Slug         *string `json:"slug,omitempty"`
	TourTypeID   *string `json:"tour_type_id,omitempty"`
	Destination  *string `json:"destination,omitempty"`
	Description  *string `json:"description,omitempty"`
	PriceCents   *int64  `json:"price_cents,omitempty"`
	DurationDays *int    `json:"duration_days,omitempty"`
	ImageURL     *string `json:"image_url,omitempty"`
	IsFeatured   *bool   `json:"is_featured,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

func (c *Client) ListGallery(ctx context.Context, q ListQuery) ([]GalleryItem, *Pagination, error) {
	return list[GalleryItem](ctx, c, "/api/gallery", q)
}

// UploadGalleryItem sends the image as multipart form data
func (c *Client) UploadGalleryItem(ctx context.Context, upload GalleryUpload) (*GalleryItem, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	fields := map[string]string{
		"title":       upload.Title,
		"description": upload.Description,
		"category":    upload.Category,
	}
	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}

	if upload.Image != nil {
		part, err := form.CreateFormFile("image", upload.FileName)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, upload.Image); err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	var item GalleryItem
	req := &request{
		method:      http.MethodPost,
		path:        "/api/gallery",
		body:        &buf,
		contentType: form.FormDataContentType(),
	}
	if _, err := c.send(ctx, req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) UpdateGalleryItem(ctx context.Context, id string, update GalleryUpdate) (*GalleryItem, error) {
	var item GalleryItem
	if _, err := c.doJSON(ctx, http.MethodPut, "/api/gallery/"+url.PathEscape(id), update, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) DeleteGalleryItem(ctx context.Context, id string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/api/gallery/"+url.PathEscape(id), nil, nil)
	return err
}

// SendMessage submits the public contact form. The returned string is the
// server's confirmation text.
func (c *Client) SendMessage(ctx context.Context, input MessageInput) (*Message, string, error) {
	var msg Message
	env, err := c.doJSON(ctx, http.MethodPost, "/api/messages", input, &msg)
	if err != nil {
		return nil, "", err
	}
	return &msg, env.Message, nil
}

func (c *Client) ListMessages(ctx context.Context, q ListQuery) ([]Message, *Pagination, error) {
	return list[Message](ctx, c, "/api/messages", q)
}

func (c *Client) GetMessage(ctx context.Context, id string) (*Message, error) {
	var msg Message
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/messages/"+url.PathEscape(id), nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) UpdateMessageStatus(ctx context.Context, id, status string) (*Message, error) {
	var msg Message
	payload := map[string]string{"status": status}
	if _, err := c.doJSON(ctx, http.MethodPatch, "/api/messages/"+url.PathEscape(id)+"/status", payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/api/messages/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) GetSiteSettings(ctx context.Context) (*SiteSettings, error) {
	var settings SiteSettings
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/site-settings", nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (c *Client) UpdateSiteSettings(ctx context.Context, update SiteSettingsUpdate) (*SiteSettings, error) {
	var settings SiteSettings
	if _, err := c.doJSON(ctx, http.MethodPut, "/api/site-settings", update, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (c *Client) ListTourTypes(ctx context.Context, q ListQuery) ([]TourType, *Pagination, error) {
	return list[TourType](ctx, c, "/api/tour-types", q)
}

func (c *Client) GetTourType(ctx context.Context, id string) (*TourType, error) {
	var tt TourType
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/tour-types/"+url.PathEscape(id), nil, &tt); err != nil {
		return nil, err
	}
	return &tt, nil
}

func (c *Client) CreateTourType(ctx context.Context, input TourTypeInput) (*TourType, error) {
	var tt TourType
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/tour-types", input, &tt); err != nil {
		return nil, err
	}
	return &tt, nil
}

func (c *Client) UpdateTourType(ctx context.Context, id string, input TourTypeInput) (*TourType, error) {
	var tt TourType
	if _, err := c.doJSON(ctx, http.MethodPut, "/api/tour-types/"+url.PathEscape(id), input, &tt); err != nil {
		return nil, err
	}
	return &tt, nil
}

func (c *Client) DeleteTourType(ctx context.Context, id string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/api/tour-types/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) ListPackages(ctx context.Context, q ListQuery) ([]Package, *Pagination, error) {
	return list[Package](ctx, c, "/api/packages", q)
}

// GetPackage looks a package up by slug
func (c *Client) GetPackage(ctx context.Context, slug string) (*Package, error) {
	var pkg Package
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/packages/"+url.PathEscape(slug), nil, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (c *Client) CreatePackage(ctx context.Context, input PackageInput) (*Package, error) {
	var pkg Package
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/packages", input, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (c *Client) UpdatePackage(ctx context.Context, id string, input PackageInput) (*Package, error) {
	var pkg Package
	if _, err := c.doJSON(ctx, http.MethodPut, "/api/packages/"+url.PathEscape(id), input, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (c *Client) DeletePackage(ctx context.Context, id string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/api/packages/"+url.PathEscape(id), nil, nil)
	return err
}
