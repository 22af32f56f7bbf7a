package remotefs

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Protocol identifies the driver implementation behind a scheme.
type Protocol string

const (
	ProtocolFTP  Protocol = "ftp"
	ProtocolFTPS Protocol = "ftps"
	ProtocolSFTP Protocol = "sftp"
)

func (p Protocol) valid() bool {
	switch p {
	case ProtocolFTP, ProtocolFTPS, ProtocolSFTP:
		return true
	}
	return false
}

// ErrRegistrySealed is returned by Register once the registry is sealed.
var ErrRegistrySealed = errors.New("remotefs: registry is sealed")

type registration struct {
	protocol Protocol
	port     int
}

// Registry maps connection-string schemes to a protocol and its default
// port. Schemes are matched case-insensitively.
//
// A Registry is populated once at startup and read-only afterwards: Seal it
// before handing it to clients that may run concurrently.
type Registry struct {
	entries map[string]registration
	sealed  bool
}

// NewRegistry returns an empty, unsealed registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r := NewRegistry()
	for _, e := range []struct {
		scheme   string
		protocol Protocol
		port     int
	}{
		{"ftp", ProtocolFTP, 21},
		{"ftps", ProtocolFTPS, 21},
		{"ftpes", ProtocolFTPS, 21},
		{"ftp+explicit", ProtocolFTPS, 21},
		{"sftp", ProtocolSFTP, 22},
	} {
		if err := r.Register(e.scheme, e.protocol, e.port); err != nil {
			panic(err)
		}
	}
	r.Seal()
	return r
})

// DefaultRegistry returns the sealed registry used when no WithRegistry
// option is given. It knows ftp, ftps, ftpes, ftp+explicit and sftp.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// Register binds scheme to protocol with the given default port.
func (r *Registry) Register(scheme string, protocol Protocol, defaultPort int) error {
	if r.sealed {
		return ErrRegistrySealed
	}
	scheme = strings.ToLower(strings.TrimSpace(scheme))
	if scheme == "" || strings.ContainsAny(scheme, ":/?@") {
		return fmt.Errorf("remotefs: invalid scheme %q", scheme)
	}
	if !protocol.valid() {
		return fmt.Errorf("remotefs: no driver for protocol %q", protocol)
	}
	if defaultPort < 0 || defaultPort > 65535 {
		return fmt.Errorf("remotefs: invalid default port %d for scheme %q", defaultPort, scheme)
	}
	if _, ok := r.entries[scheme]; ok {
		return fmt.Errorf("remotefs: scheme %q already registered", scheme)
	}
	r.entries[scheme] = registration{protocol: protocol, port: defaultPort}
	return nil
}

// Lookup returns the protocol and default port registered for scheme.
func (r *Registry) Lookup(scheme string) (Protocol, int, bool) {
	e, ok := r.entries[strings.ToLower(scheme)]
	return e.protocol, e.port, ok
}

// Schemes returns the registered schemes in sorted order.
func (r *Registry) Schemes() []string {
	schemes := make([]string, 0, len(r.entries))
	for s := range r.entries {
		schemes = append(schemes, s)
	}
	slices.Sort(schemes)
	return schemes
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.sealed = true
}
