package pointgate

import (
	"encoding/json"
	"errors"
	"slices"
	"sort"

	"github.com/flarexio/pointgate/vector"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid request")
)

const (
	// ResultLimit bounds every search and scroll page.
	ResultLimit = 7
	GroupSize   = 1
)

type Config struct {
	Vector            vector.Config `yaml:"vector"`
	PrivateCategories []string      `yaml:"privateCategories"`
	Categories        Categories    `yaml:"categories"`
}

type Categories struct {
	Message     string `yaml:"message"`
	ChatMessage string `yaml:"chatMessage"`
	Chat        string `yaml:"chat"`
}

func DefaultConfig() Config {
	return Config{
		Vector: vector.Config{
			Collection:     "i",
			CounterPointID: "0",
		},
		Categories: Categories{
			Message:     "m",
			ChatMessage: "scm",
			Chat:        "lucid",
		},
	}
}

// Normalize fills unset fields from DefaultConfig.
func (cfg Config) Normalize() Config {
	def := DefaultConfig()

	if cfg.Vector.Collection == "" {
		cfg.Vector.Collection = def.Vector.Collection
	}

	if cfg.Vector.CounterPointID == "" {
		cfg.Vector.CounterPointID = def.Vector.CounterPointID
	}

	if cfg.Categories.Message == "" {
		cfg.Categories.Message = def.Categories.Message
	}

	if cfg.Categories.ChatMessage == "" {
		cfg.Categories.ChatMessage = def.Categories.ChatMessage
	}

	if cfg.Categories.Chat == "" {
		cfg.Categories.Chat = def.Categories.Chat
	}

	return cfg
}

func (cfg Config) IsPrivate(category string) bool {
	return slices.Contains(cfg.PrivateCategories, category)
}

type ItemQuery struct {
	User     string `json:"u" form:"u"`
	ID       string `json:"i" form:"i" binding:"required"`
	Category string `json:"c" form:"c"`
}

type SetRequest struct {
	ID    string `json:"i"`
	Value string `json:"v"`
}

type SetResult string

const (
	Updated  SetResult = "Updated"
	Inserted SetResult = "Inserted"
)

// AddRequest carries both sides of one exchange: u/ud is party A, a/ad is
// party B.
type AddRequest struct {
	A       string `json:"a"`
	U       string `json:"u"`
	ADate   string `json:"ad"`
	UDate   string `json:"ud"`
	Thread  string `json:"i"`
	Project string `json:"p"`
}

type SearchRequest struct {
	Query   string         `json:"q"`
	Filters map[string]any `json:"f,omitempty"`
}

type GroupSearchRequest struct {
	Key     string         `json:"k"`
	Query   string         `json:"q"`
	Filters map[string]any `json:"f,omitempty"`
}

type IPSearchRequest struct {
	Since   any    `json:"d" binding:"required"`
	Project string `json:"p,omitempty"`
}

// BuildFilter turns a field to value mapping into one exact-match must
// clause per field. An empty mapping yields no filter at all.
func BuildFilter(fields map[string]any) *vector.Filter {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	must := make([]vector.Condition, len(keys))
	for i, key := range keys {
		must[i] = vector.MatchValue(key, fields[key])
	}

	return &vector.Filter{Must: must}
}

// Owner reports whether the payload's u field identifies user. u is kept as
// opaque JSON: strings compare directly, other values by their JSON text.
func Owner(payload vector.Payload, user string) bool {
	u, ok := payload["u"]
	if !ok {
		return false
	}

	if s, ok := u.(string); ok {
		return s == user
	}

	bs, err := json.Marshal(u)
	if err != nil {
		return false
	}

	return string(bs) == user
}
