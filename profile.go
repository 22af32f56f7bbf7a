package remotefs

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is a named connection kept in a profiles file:
//
//	profiles:
//	  mirror:
//	    url: ftp://anonymous@ftp.example.com/pub
//	    password_env: MIRROR_PASSWORD
//	    options:
//	      passive: "false"
//	      timeout: 10s
//
// Options are added to the URL's extra options in file order and replace
// query parameters with the same key.
type Profile struct {
	Name        string
	URL         string
	PasswordEnv string
	Options     []ProfileOption
}

// ProfileOption is one entry of a profile's options mapping.
type ProfileOption struct {
	Key   string
	Value string
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Profile) UnmarshalYAML(n *yaml.Node) error {
	var raw struct {
		URL         string    `yaml:"url"`
		PasswordEnv string    `yaml:"password_env"`
		Options     yaml.Node `yaml:"options"`
	}
	if err := n.Decode(&raw); err != nil {
		return err
	}
	p.URL, p.PasswordEnv = raw.URL, raw.PasswordEnv

	opts := raw.Options
	if opts.Kind == 0 || opts.Tag == "!!null" {
		return nil
	}
	if opts.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: options must be a mapping", opts.Line)
	}
	for i := 0; i+1 < len(opts.Content); i += 2 {
		k, v := opts.Content[i], opts.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: option %q must be a scalar", v.Line, k.Value)
		}
		p.Options = append(p.Options, ProfileOption{Key: k.Value, Value: v.Value})
	}
	return nil
}

func (p Profile) connectionOptions(r *Registry) (ConnectionOptions, error) {
	o, err := r.Parse(p.URL)
	if err != nil {
		return ConnectionOptions{}, err
	}
	if p.PasswordEnv != "" {
		if pw, ok := os.LookupEnv(p.PasswordEnv); ok {
			o.Password = pw
		}
	}
	for _, opt := range p.Options {
		o = o.WithExtra(opt.Key, opt.Value)
	}
	return o, nil
}

// ConnectionOptions resolves the profile against the default registry.
func (p Profile) ConnectionOptions() (ConnectionOptions, error) {
	return p.connectionOptions(DefaultRegistry())
}

// Profiles is a set of profiles in file order.
type Profiles struct {
	list []Profile
}

// Get returns the profile called name.
func (ps Profiles) Get(name string) (Profile, bool) {
	for _, p := range ps.list {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// Names returns the profile names in file order.
func (ps Profiles) Names() []string {
	names := make([]string, len(ps.list))
	for i, p := range ps.list {
		names[i] = p.Name
	}
	return names
}

// LoadProfiles reads a profiles document.
func LoadProfiles(r io.Reader) (Profiles, error) {
	var doc struct {
		Profiles yaml.Node `yaml:"profiles"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Profiles{}, nil
		}
		return Profiles{}, fmt.Errorf("remotefs: read profiles: %w", err)
	}

	node := doc.Profiles
	if node.Kind == 0 {
		return Profiles{}, nil
	}
	if node.Kind != yaml.MappingNode {
		return Profiles{}, fmt.Errorf("remotefs: read profiles: line %d: profiles must be a mapping", node.Line)
	}

	var ps Profiles
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if _, dup := ps.Get(name); dup {
			return Profiles{}, fmt.Errorf("remotefs: read profiles: duplicate profile %q", name)
		}
		var p Profile
		if err := node.Content[i+1].Decode(&p); err != nil {
			return Profiles{}, fmt.Errorf("remotefs: read profile %q: %w", name, err)
		}
		if p.URL == "" {
			return Profiles{}, fmt.Errorf("remotefs: read profile %q: no url", name)
		}
		p.Name = name
		ps.list = append(ps.list, p)
	}
	return ps, nil
}

// LoadProfilesFile reads the profiles document at path.
func LoadProfilesFile(path string) (Profiles, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profiles{}, err
	}
	defer f.Close()
	return LoadProfiles(f)
}
