package config

import (
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Error represents a configuration loading or validation failure.
type Error struct {
	Code    string
	Message string
}

const (
	// ErrCodeInvalidConfig indicates the document failed schema
	// validation or could not be decoded.
	ErrCodeInvalidConfig = "INVALID_CONFIG"

	// ErrCodeNotFound indicates the config file does not exist.
	ErrCodeNotFound = "CONFIG_NOT_FOUND"
)

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// configSchema constrains YAML config documents. The #Config
// definition is closed: unknown keys are rejected.
const configSchema = `
#Config: {
	uri?:          string
	binds?:        {[string]: string}
	enable_shard?: bool
	enable_pool?:  bool
	pool_size?:    int & >0
	pool_timeout?: int & >=0
	pool_recycle?: int & >=0
	max_overflow?: int & >=0
	echo?:         bool
}
`

// yamlConfig is the wire form of Config. Durations are integer
// seconds; booleans with non-false defaults are pointers so that
// "absent" and "false" stay distinguishable.
type yamlConfig struct {
	URI         string            `yaml:"uri"`
	Binds       map[string]string `yaml:"binds"`
	EnableShard *bool             `yaml:"enable_shard"`
	EnablePool  *bool             `yaml:"enable_pool"`
	PoolSize    *int              `yaml:"pool_size"`
	PoolTimeout *int              `yaml:"pool_timeout"`
	PoolRecycle *int              `yaml:"pool_recycle"`
	MaxOverflow *int              `yaml:"max_overflow"`
	Echo        *bool             `yaml:"echo"`
}

// FromYAML returns an Option that merges a YAML document into the
// config. The document is validated against the embedded CUE schema
// before any field is applied; validation problems are reported as
// *Error with code INVALID_CONFIG.
func FromYAML(data []byte) (Option, error) {
	yc, err := parseYAML(data)
	if err != nil {
		return nil, err
	}
	return func(c *Config) { yc.merge(c) }, nil
}

// FromFile reads and merges a YAML config file.
func FromFile(path string) (Option, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("config file not found: %s", path)}
		}
		return nil, &Error{Code: ErrCodeInvalidConfig, Message: err.Error()}
	}
	return FromYAML(data)
}

func parseYAML(data []byte) (*yamlConfig, error) {
	// Decode to a raw map first so CUE sees exactly what was written.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("decode yaml: %v", err)}
	}
	if raw == nil {
		// Empty document: nothing to merge.
		return &yamlConfig{}, nil
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, &Error{Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("decode yaml: %v", err)}
	}
	return &yc, nil
}

// validate unifies the raw document with the closed #Config
// definition and reports the first constraint violation.
func validate(raw map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(configSchema)
	if err := schema.Err(); err != nil {
		return &Error{Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("compile schema: %v", err)}
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	unified := def.Unify(ctx.Encode(raw))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &Error{Code: ErrCodeInvalidConfig, Message: err.Error()}
	}
	return nil
}

func (yc *yamlConfig) merge(c *Config) {
	if yc.URI != "" {
		c.URI = yc.URI
	}
	if yc.Binds != nil {
		if c.Binds == nil {
			c.Binds = make(map[string]string, len(yc.Binds))
		}
		for k, v := range yc.Binds {
			c.Binds[k] = v
		}
	}
	if yc.EnableShard != nil {
		c.EnableShard = *yc.EnableShard
	}
	if yc.EnablePool != nil {
		c.EnablePool = *yc.EnablePool
	}
	if yc.PoolSize != nil {
		c.PoolSize = *yc.PoolSize
	}
	if yc.PoolTimeout != nil {
		c.PoolTimeout = time.Duration(*yc.PoolTimeout) * time.Second
	}
	if yc.PoolRecycle != nil {
		c.PoolRecycle = time.Duration(*yc.PoolRecycle) * time.Second
	}
	if yc.MaxOverflow != nil {
		c.MaxOverflow = *yc.MaxOverflow
	}
	if yc.Echo != nil {
		c.Echo = *yc.Echo
	}
}
