package pointgate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestBuildFilter(t *testing.T) {
	assert := assert.New(t)

	assert.Nil(BuildFilter(nil))
	assert.Nil(BuildFilter(map[string]any{}))

	filter := BuildFilter(map[string]any{"p": "proj", "c": "m"})
	if !assert.NotNil(filter) {
		return
	}

	bs, err := json.Marshal(filter)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	expected := `{"must":[{"key":"c","match":{"value":"m"}},{"key":"p","match":{"value":"proj"}}]}`
	assert.JSONEq(expected, string(bs))
}

func TestOwner(t *testing.T) {
	assert := assert.New(t)

	assert.True(Owner(map[string]any{"u": "alice"}, "alice"))
	assert.False(Owner(map[string]any{"u": "alice"}, "bob"))
	assert.False(Owner(map[string]any{"v": "x"}, "alice"))
	assert.True(Owner(map[string]any{"u": float64(1)}, "1"))
	assert.True(Owner(map[string]any{"u": json.Number("42")}, "42"))
	assert.False(Owner(map[string]any{"u": nil}, ""))
}

func TestConfigNormalize(t *testing.T) {
	assert := assert.New(t)

	cfg := Config{PrivateCategories: []string{"secret"}}
	cfg.Vector.Collection = "memories"

	cfg = cfg.Normalize()

	assert.Equal("memories", cfg.Vector.Collection)
	assert.Equal("0", cfg.Vector.CounterPointID)
	assert.Equal("m", cfg.Categories.Message)
	assert.Equal("scm", cfg.Categories.ChatMessage)
	assert.Equal("lucid", cfg.Categories.Chat)
	assert.True(cfg.IsPrivate("secret"))
	assert.False(cfg.IsPrivate("m"))
}

func TestConfigYAML(t *testing.T) {
	assert := assert.New(t)

	raw := `
vector:
  collection: notes
  counterPointID: "100"
privateCategories:
  - diary
  - secret
categories:
  chat: threads
`

	var cfg Config
	if err := yaml.Unmarshal([]byte(raw), &cfg); err != nil {
		assert.Fail(err.Error())
		return
	}

	cfg = cfg.Normalize()

	assert.Equal("notes", cfg.Vector.Collection)
	assert.Equal("100", cfg.Vector.CounterPointID)
	assert.Equal([]string{"diary", "secret"}, cfg.PrivateCategories)
	assert.Equal("threads", cfg.Categories.Chat)
	assert.Equal("scm", cfg.Categories.ChatMessage)
}
