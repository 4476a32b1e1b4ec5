package store

import (
	"context"
	"sync"

	"github.com/wanderlust-dev/wanderlust/internal/cli/client"
)

// Gallery holds gallery items
type Gallery struct {
	*Collection[client.GalleryItem]
	api *client.Client
}

func NewGallery(api *client.Client, n Notifier) *Gallery {
	return &Gallery{
		Collection: NewCollection(func(g client.GalleryItem) string { return g.ID }, n),
		api:        api,
	}
}

func (g *Gallery) Fetch(ctx context.Context, q client.ListQuery) Result {
	return g.Collection.Fetch(ctx, func(ctx context.Context) ([]client.GalleryItem, *client.Pagination, error) {
		return g.api.ListGallery(ctx, q)
	})
}

func (g *Gallery) Upload(ctx context.Context, upload client.GalleryUpload) Result {
	return g.Collection.Create(ctx, func(ctx context.Context) (client.GalleryItem, error) {
		item, err := g.api.UploadGalleryItem(ctx, upload)
		if err != nil {
			return client.GalleryItem{}, err
		}
		return *item, nil
	}, "Image uploaded successfully")
}

func (g *Gallery) Update(ctx context.Context, id string, update client.GalleryUpdate) Result {
	return g.Collection.Update(ctx, func(ctx context.Context) (client.GalleryItem, error) {
		item, err := g.api.UpdateGalleryItem(ctx, id, update)
		if err != nil {
			return client.GalleryItem{}, err
		}
		return *item, nil
	}, "Gallery item updated")
}

func (g *Gallery) Delete(ctx context.Context, id string) Result {
	return g.Collection.Delete(ctx, id, func(ctx context.Context) error {
		return g.api.DeleteGalleryItem(ctx, id)
	}, "Gallery item deleted")
}

// Messages holds contact form submissions
type Messages struct {
	*Collection[client.Message]
	api *client.Client
}

func NewMessages(api *client.Client, n Notifier) *Messages {
	return &Messages{
		Collection: NewCollection(func(m client.Message) string { return m.ID }, n),
		api:        api,
	}
}

func (m *Messages) Fetch(ctx context.Context, q client.ListQuery) Result {
	return m.Collection.Fetch(ctx, func(ctx context.Context) ([]client.Message, *client.Pagination, error) {
		return m.api.ListMessages(ctx, q)
	})
}

// Send submits the public contact form and keeps the created message
func (m *Messages) Send(ctx context.Context, input client.MessageInput) Result {
	return m.Collection.Create(ctx, func(ctx context.Context) (client.Message, error) {
		msg, _, err := m.api.SendMessage(ctx, input)
		if err != nil {
			return client.Message{}, err
		}
		return *msg, nil
	}, "Message sent successfully")
}

func (m *Messages) UpdateStatus(ctx context.Context, id, status string) Result {
	return m.Collection.Update(ctx, func(ctx context.Context) (client.Message, error) {
		msg, err := m.api.UpdateMessageStatus(ctx, id, status)
		if err != nil {
			return client.Message{}, err
		}
		return *msg, nil
	}, "Message marked as "+status)
}

func (m *Messages) Delete(ctx context.Context, id string) Result {
	return m.Collection.Delete(ctx, id, func(ctx context.Context) error {
		return m.api.DeleteMessage(ctx, id)
	}, "Message deleted")
}

// TourTypes holds tour types
type TourTypes struct {
	*Collection[client.TourType]
	api *client.Client
}

func NewTourTypes(api *client.Client, n Notifier) *TourTypes {
	return &TourTypes{
		Collection: NewCollection(func(t client.TourType) string { return t.ID }, n),
		api:        api,
	}
}

func (t *TourTypes) Fetch(ctx context.Context, q client.ListQuery) Result {
	return t.Collection.Fetch(ctx, func(ctx context.Context) ([]client.TourType, *client.Pagination, error) {
		return t.api.ListTourTypes(ctx, q)
	})
}

func (t *TourTypes) Create(ctx context.Context, input client.TourTypeInput) Result {
	return t.Collection.Create(ctx, func(ctx context.Context) (client.TourType, error) {
		tt, err := t.api.CreateTourType(ctx, input)
		if err != nil {
			return client.TourType{}, err
		}
		return *tt, nil
	}, "Tour type created")
}

func (t *TourTypes) Update(ctx context.Context, id string, input client.TourTypeInput) Result {
	return t.Collection.Update(ctx, func(ctx context.Context) (client.TourType, error) {
		tt, err := t.api.UpdateTourType(ctx, id, input)
		if err != nil {
			return client.TourType{}, err
		}
		return *tt, nil
	}, "Tour type updated")
}

func (t *TourTypes) Delete(ctx context.Context, id string) Result {
	return t.Collection.Delete(ctx, id, func(ctx context.Context) error {
		return t.api.DeleteTourType(ctx, id)
	}, "Tour type deleted")
}

// Packages holds travel packages
type Packages struct {
	*Collection[client.Package]
	api *client.Client
}

func NewPackages(api *client.Client, n Notifier) *Packages {
	return &Packages{
		Collection: NewCollection(func(p client.Package) string { return p.ID }, n),
		api:        api,
	}
}

func (p *Packages) Fetch(ctx context.Context, q client.ListQuery) Result {
	return p.Collection.Fetch(ctx, func(ctx context.Context) ([]client.Package, *client.Pagination, error) {
		return p.api.ListPackages(ctx, q)
	})
}

func (p *Packages) Create(ctx context.Context, input client.PackageInput) Result {
	return p.Collection.Create(ctx, func(ctx context.Context) (client.Package, error) {
		pkg, err := p.api.CreatePackage(ctx, input)
		if err != nil {
			return client.Package{}, err
		}
		return *pkg, nil
	}, "Package created")
}

func (p *Packages) Update(ctx context.Context, id string, input client.PackageInput) Result {
	return p.Collection.Update(ctx, func(ctx context.Context) (client.Package, error) {
		pkg, err := p.api.UpdatePackage(ctx, id, input)
		if err != nil {
			return client.Package{}, err
		}
		return *pkg, nil
	}, "Package updated")
}

func (p *Packages) Delete(ctx context.Context, id string) Result {
	return p.Collection.Delete(ctx, id, func(ctx context.Context) error {
		return p.api.DeletePackage(ctx, id)
	}, "Package deleted")
}

// SiteSettingsState is a snapshot of the SiteSettings store
type SiteSettingsState struct {
	Settings *client.SiteSettings
	Loading  bool
	Error    string
}

// SiteSettings holds the singleton site configuration
type SiteSettings struct {
	mu       sync.Mutex
	api      *client.Client
	notifier Notifier
	state    SiteSettingsState
}

func NewSiteSettings(api *client.Client, n Notifier) *SiteSettings {
	if n == nil {
		n = Nop
	}
	return &SiteSettings{api: api, notifier: n}
}

func (s *SiteSettings) State() SiteSettingsState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	if st.Settings != nil {
		c := *st.Settings
		st.Settings = &c
	}
	return st
}

func (s *SiteSettings) Fetch(ctx context.Context) Result {
	return s.run(ctx, s.api.GetSiteSettings, "")
}

func (s *SiteSettings) Update(ctx context.Context, update client.SiteSettingsUpdate) Result {
	return s.run(ctx, func(ctx context.Context) (*client.SiteSettings, error) {
		return s.api.UpdateSiteSettings(ctx, update)
	}, "Settings saved")
}

func (s *SiteSettings) run(ctx context.Context, call func(context.Context) (*client.SiteSettings, error), successMsg string) Result {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()

	settings, err := call(ctx)

	s.mu.Lock()
	s.state.Loading = false
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.mu.Unlock()
		return Result{Error: ctxErr.Error()}
	}
	if err != nil {
		message := client.DisplayMessage(err)
		s.state.Error = message
		s.mu.Unlock()
		s.notifier.Error(message)
		return Result{Error: message}
	}
	s.state.Settings = settings
	s.mu.Unlock()

	if successMsg != "" {
		s.notifier.Success(successMsg)
	}
	return Result{Success: true}
}
