package content

import (
	"fmt"

	"github.com/google/uuid"
)

// Proxy is a type-specific handler that recognizes items it can
// represent. Proxies are consulted in registration order and the first
// match wins, so registration order encodes priority; it must only break
// ties, never carry semantics on its own.
type Proxy interface {
	// Name identifies the proxy; unique across a registry.
	Name() string
	// IsProxyFor reports whether the proxy represents the given item.
	IsProxyFor(it *Item) bool
}

// AssetProxy additionally recognizes asset container types and
// constructs their items.
type AssetProxy interface {
	Proxy
	// AcceptsAsset reports whether the proxy handles the container type.
	AcceptsAsset(typeID uint32, path string) bool
	// ConstructItem builds the item for a recognized container file.
	ConstructItem(path string, typeID uint32, id uuid.UUID) (*Item, error)
}

// Registry is the ordered proxy list. Pure lookup, no side effects.
type Registry struct {
	proxies []Proxy
	strict  bool
}

// NewRegistry creates an empty registry. With strict enabled,
// registration and resolution fail fast when two proxies claim
// overlapping responsibility; tests run strict.
func NewRegistry(strict bool) *Registry {
	return &Registry{strict: strict}
}

// Register appends a proxy. Duplicate names are a programming error.
func (r *Registry) Register(p Proxy) {
	for _, existing := range r.proxies {
		if existing.Name() == p.Name() {
			panic(fmt.Sprintf("content: proxy %q registered twice", p.Name()))
		}
	}
	r.proxies = append(r.proxies, p)
}

// Resolve returns the first registered proxy representing the item, or
// nil when none claims it.
func (r *Registry) Resolve(it *Item) Proxy {
	var found Proxy
	for _, p := range r.proxies {
		if !p.IsProxyFor(it) {
			continue
		}
		if !r.strict {
			return p
		}
		if found != nil {
			panic(fmt.Sprintf("content: proxies %q and %q both claim item %s", found.Name(), p.Name(), it.Path))
		}
		found = p
	}
	return found
}

// ResolveAsset returns the first asset proxy accepting the container
// type, or nil when the type is unclaimed.
func (r *Registry) ResolveAsset(typeID uint32, path string) AssetProxy {
	var found AssetProxy
	for _, p := range r.proxies {
		ap, ok := p.(AssetProxy)
		if !ok || !ap.AcceptsAsset(typeID, path) {
			continue
		}
		if !r.strict {
			return ap
		}
		if found != nil {
			panic(fmt.Sprintf("content: asset proxies %q and %q both accept type %d", found.Name(), ap.Name(), typeID))
		}
		found = ap
	}
	return found
}

// typedAssetProxy handles exactly one container type id.
type typedAssetProxy struct {
	name   string
	typeID uint32
}

func (p *typedAssetProxy) Name() string { return p.name }

func (p *typedAssetProxy) IsProxyFor(it *Item) bool {
	return it.Kind == KindAsset && it.TypeID == p.typeID
}

func (p *typedAssetProxy) AcceptsAsset(typeID uint32, _ string) bool {
	return typeID == p.typeID
}

func (p *typedAssetProxy) ConstructItem(path string, typeID uint32, id uuid.UUID) (*Item, error) {
	return NewAssetItem(path, typeID, p.name, id), nil
}

// NewAssetProxyForType returns a proxy claiming a single container type.
func NewAssetProxyForType(name string, typeID uint32) AssetProxy {
	return &typedAssetProxy{name: name, typeID: typeID}
}

// Built-in container type ids.
const (
	TypeTexture  uint32 = 1
	TypeModel    uint32 = 2
	TypeMaterial uint32 = 3
	TypeAudio    uint32 = 4
	TypeScene    uint32 = 5
	TypePrefab   uint32 = 6
)

// DefaultRegistry returns a registry with the built-in asset proxies in
// their canonical order.
func DefaultRegistry(strict bool) *Registry {
	r := NewRegistry(strict)
	r.Register(NewAssetProxyForType("texture", TypeTexture))
	r.Register(NewAssetProxyForType("model", TypeModel))
	r.Register(NewAssetProxyForType("material", TypeMaterial))
	r.Register(NewAssetProxyForType("audio", TypeAudio))
	r.Register(NewAssetProxyForType("scene", TypeScene))
	r.Register(NewAssetProxyForType("prefab", TypePrefab))
	return r
}
