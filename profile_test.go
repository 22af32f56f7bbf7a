package remotefs

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

const profilesDoc = `
profiles:
  mirror:
    url: ftp://ftp.example.com/pub?timeout=5
    options:
      timeout: 10s
      passive: "false"
      user: mallory
  deploy:
    url: sftp://deploy@build.example.com
    password_env: REMOTEFS_TEST_DEPLOY_PASSWORD
`

func TestLoadProfiles(t *testing.T) {
	ps, err := LoadProfiles(strings.NewReader(profilesDoc))
	if err != nil {
		t.Fatalf("LoadProfiles: %v", err)
	}
	if got := ps.Names(); !slices.Equal(got, []string{"mirror", "deploy"}) {
		t.Errorf("Names() = %q", got)
	}

	mirror, ok := ps.Get("mirror")
	if !ok {
		t.Fatal("mirror profile missing")
	}
	o, err := mirror.ConnectionOptions()
	if err != nil {
		t.Fatal(err)
	}
	if o.Dir != "/pub" || o.User != DefaultUser {
		t.Errorf("options = %+v", o)
	}
	if v, _ := o.Extra("timeout"); v != "10s" {
		t.Errorf("timeout = %q, want the profile to override the query", v)
	}
	if got := o.ExtraKeys(); !slices.Equal(got, []string{"timeout", "passive"}) {
		t.Errorf("ExtraKeys() = %q", got)
	}

	t.Setenv("REMOTEFS_TEST_DEPLOY_PASSWORD", "s3cret")
	deploy, _ := ps.Get("deploy")
	o, err = deploy.ConnectionOptions()
	if err != nil {
		t.Fatal(err)
	}
	if o.Password != "s3cret" || o.Protocol != ProtocolSFTP || o.User != "deploy" {
		t.Errorf("deploy options = %+v", o)
	}

	if _, ok := ps.Get("nope"); ok {
		t.Error("Get found a missing profile")
	}
}

func TestLoadProfilesErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"not a mapping":    "profiles: [a, b]\n",
		"missing url":      "profiles:\n  a:\n    password_env: X\n",
		"nested option":    "profiles:\n  a:\n    url: ftp://h\n    options:\n      timeout: {s: 1}\n",
		"options sequence": "profiles:\n  a:\n    url: ftp://h\n    options: [1]\n",
		"duplicate":        "profiles:\n  a:\n    url: ftp://h\n  a:\n    url: ftp://g\n",
		"bad yaml":         "profiles: [\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := LoadProfiles(strings.NewReader(doc)); err == nil {
				t.Errorf("LoadProfiles accepted %q", doc)
			}
		})
	}
}

func TestLoadProfilesEmpty(t *testing.T) {
	t.Parallel()
	for _, doc := range []string{"", "other: 1\n"} {
		ps, err := LoadProfiles(strings.NewReader(doc))
		if err != nil || len(ps.Names()) != 0 {
			t.Errorf("LoadProfiles(%q) = %v, %v", doc, ps.Names(), err)
		}
	}
}

func TestNewFromProfileFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	if err := os.WriteFile(path, []byte(profilesDoc), 0o600); err != nil {
		t.Fatal(err)
	}
	ps, err := LoadProfilesFile(path)
	if err != nil {
		t.Fatal(err)
	}
	mirror, _ := ps.Get("mirror")

	ft := newFakeTransport()
	c, err := NewFromProfile(mirror, WithDialer(ft.dial))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Connect(); err != nil {
		t.Fatal(err)
	}
	if ft.cfg.Passive || ft.cfg.Timeout.Seconds() != 10 {
		t.Errorf("profile options not applied: %+v", ft.cfg)
	}

	if _, err := LoadProfilesFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadProfilesFile read a missing file")
	}
}
