package api

import (
	"github.com/google/uuid"

	"github.com/starford/forge/internal/apperr"
	"github.com/starford/forge/internal/content"
)

// Service answers read-only queries against the content database. Every
// query is marshalled onto the database's owning goroutine via Do; the
// handlers themselves never touch the tree.
type Service struct {
	db *content.Database
}

// NewService creates a new API service.
func NewService(db *content.Database) *Service {
	return &Service{db: db}
}

// ItemDetail describes one indexed item.
type ItemDetail struct {
	Path     string `json:"path"`
	ID       string `json:"id,omitempty"`
	Kind     string `json:"kind"`
	TypeName string `json:"type_name,omitempty"`
	Mount    string `json:"mount"`
	Children int    `json:"children,omitempty"`
}

// FolderListing is the response for a folder's direct children.
type FolderListing struct {
	Path  string       `json:"path"`
	Items []ItemDetail `json:"items"`
}

// Stats reports the database's running counters.
type Stats struct {
	ItemsCreated     int64 `json:"items_created"`
	ItemsDeleted     int64 `json:"items_deleted"`
	PendingRefreshes int   `json:"pending_refreshes"`
}

func toDetail(it *content.Item) ItemDetail {
	d := ItemDetail{
		Path:     it.Path,
		Kind:     it.Kind.String(),
		TypeName: it.TypeName,
		Mount:    it.Mount().Kind.String(),
		Children: len(it.Children),
	}
	if it.ID != uuid.Nil {
		d.ID = it.ID.String()
	}
	return d
}

// ItemByPath looks up an item by absolute path.
func (s *Service) ItemByPath(path string) (*ItemDetail, error) {
	var out *ItemDetail
	err := s.db.Do(func() {
		if it := s.db.FindByPath(path); it != nil {
			d := toDetail(it)
			out = &d
		}
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, apperr.ErrNotFound
	}
	return out, nil
}

// ItemByID looks up an asset item by unique id.
func (s *Service) ItemByID(id uuid.UUID) (*ItemDetail, error) {
	var out *ItemDetail
	err := s.db.Do(func() {
		if it := s.db.FindByID(id); it != nil {
			d := toDetail(it)
			out = &d
		}
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, apperr.ErrNotFound
	}
	return out, nil
}

// Script looks up a script item by script name.
func (s *Service) Script(name string) (*ItemDetail, error) {
	var out *ItemDetail
	err := s.db.Do(func() {
		if it := s.db.FindScript(name); it != nil {
			d := toDetail(it)
			out = &d
		}
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, apperr.ErrNotFound
	}
	return out, nil
}

// Tree lists the direct children of a folder. An empty path lists the
// mount roots themselves.
func (s *Service) Tree(path string) (*FolderListing, error) {
	var (
		out      *FolderListing
		notFound bool
	)
	err := s.db.Do(func() {
		if path == "" {
			listing := &FolderListing{Items: []ItemDetail{}}
			for _, m := range s.db.Mounts() {
				listing.Items = append(listing.Items, toDetail(m.Folder))
			}
			out = listing
			return
		}
		it := s.db.FindByPath(path)
		if it == nil || !it.IsFolder() {
			notFound = true
			return
		}
		listing := &FolderListing{Path: it.Path, Items: []ItemDetail{}}
		for _, c := range it.Children {
			listing.Items = append(listing.Items, toDetail(c))
		}
		out = listing
	})
	if err != nil {
		return nil, err
	}
	if notFound {
		return nil, apperr.ErrNotFound
	}
	return out, nil
}

// Stats reports the running item counters and queue depth.
func (s *Service) Stats() (Stats, error) {
	var out Stats
	err := s.db.Do(func() {
		out = Stats{
			ItemsCreated:     s.db.ItemsCreated(),
			ItemsDeleted:     s.db.ItemsDeleted(),
			PendingRefreshes: s.db.PendingRefreshes(),
		}
	})
	return out, err
}
