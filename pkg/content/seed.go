// pkg/content/seed.go
package content

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Node is one seeded repository node.
type Node struct {
	Path       string         `yaml:"path"`
	Page       bool           `yaml:"page"`
	Properties map[string]any `yaml:"properties"`
}

// Profile is one seeded user profile.
type Profile struct {
	ID    string `yaml:"id"`
	Email string `yaml:"email"`
}

// Seed is the document read from CPWIDGET_CONTENT_SEED.
//
//	nodes:
//	  - path: /content/site
//	    page: true
//	  - path: /content/site/jcr:content
//	    properties: {cq:conf: /conf/global/captivate-prime/alpha}
//	profiles:
//	  - {id: u1, email: u1@example.com}
type Seed struct {
	Nodes    []Node    `yaml:"nodes"`
	Profiles []Profile `yaml:"profiles"`
}

func ParseSeed(b []byte) (Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Seed{}, fmt.Errorf("content: parse seed: %w", err)
	}
	return s, nil
}

// LoadSeed reads a seed file; an empty name yields an empty seed.
func LoadSeed(name string) (Seed, error) {
	if name == "" {
		return Seed{}, nil
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return Seed{}, fmt.Errorf("content: read seed: %w", err)
	}
	return ParseSeed(b)
}

// Emails maps seeded user ids to their email.
func (s Seed) Emails() map[string]string {
	out := make(map[string]string, len(s.Profiles))
	for _, p := range s.Profiles {
		out[p.ID] = p.Email
	}
	return out
}
