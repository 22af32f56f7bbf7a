package remotefs

import (
	"errors"
	"reflect"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()
	want := []string{"ftp", "ftp+explicit", "ftpes", "ftps", "sftp"}
	if got := r.Schemes(); !reflect.DeepEqual(got, want) {
		t.Errorf("Schemes() = %q, want %q", got, want)
	}

	tests := []struct {
		scheme   string
		protocol Protocol
		port     int
	}{
		{"ftp", ProtocolFTP, 21},
		{"FTP", ProtocolFTP, 21},
		{"ftps", ProtocolFTPS, 21},
		{"Ftp+Explicit", ProtocolFTPS, 21},
		{"sftp", ProtocolSFTP, 22},
	}
	for _, tt := range tests {
		p, port, ok := r.Lookup(tt.scheme)
		if !ok || p != tt.protocol || port != tt.port {
			t.Errorf("Lookup(%q) = %q, %d, %v; want %q, %d", tt.scheme, p, port, ok, tt.protocol, tt.port)
		}
	}
	if _, _, ok := r.Lookup("http"); ok {
		t.Error("Lookup(http) succeeded")
	}

	if err := r.Register("ftpx", ProtocolFTP, 21); !errors.Is(err, ErrRegistrySealed) {
		t.Errorf("Register on the default registry: err = %v, want ErrRegistrySealed", err)
	}
}

func TestRegistryRegister(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register("Mirror", ProtocolFTPS, 2121); err != nil {
		t.Fatalf("Register: %v", err)
	}

	for _, tt := range []struct {
		name     string
		scheme   string
		protocol Protocol
		port     int
	}{
		{"duplicate", "mirror", ProtocolFTP, 21},
		{"empty scheme", " ", ProtocolFTP, 21},
		{"delimiter in scheme", "ftp:x", ProtocolFTP, 21},
		{"unknown protocol", "webdav", Protocol("webdav"), 80},
		{"port out of range", "big", ProtocolFTP, 70000},
	} {
		if err := r.Register(tt.scheme, tt.protocol, tt.port); err == nil {
			t.Errorf("%s: Register(%q) succeeded", tt.name, tt.scheme)
		}
	}

	opts, err := r.Parse("MIRROR://u@h")
	if err != nil {
		t.Fatal(err)
	}
	if opts.Protocol != ProtocolFTPS || opts.Port != 2121 {
		t.Errorf("Parse with custom registry = %q:%d, want ftps:2121", opts.Protocol, opts.Port)
	}
	if _, err := r.Parse("ftp://h"); err == nil {
		t.Error("custom registry parsed a scheme it does not know")
	}

	r.Seal()
	if err := r.Register("other", ProtocolFTP, 21); !errors.Is(err, ErrRegistrySealed) {
		t.Errorf("Register after Seal: err = %v, want ErrRegistrySealed", err)
	}
}
