package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingField(t *testing.T) {
	complete := BusinessProfile{
		Name:             "Acme Rocketry",
		WebsiteURL:       "https://acme.example",
		ShortDescription: "Model rockets",
	}
	assert.Empty(t, complete.MissingField())

	tests := []struct {
		name    string
		mutate  func(*BusinessProfile)
		missing string
	}{
		{"empty name", func(p *BusinessProfile) { p.Name = "" }, "name"},
		{"whitespace name", func(p *BusinessProfile) { p.Name = "   " }, "name"},
		{"empty website", func(p *BusinessProfile) { p.WebsiteURL = "" }, "website_url"},
		{"empty description", func(p *BusinessProfile) { p.ShortDescription = "" }, "short_description"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := complete
			tt.mutate(&p)
			assert.Equal(t, tt.missing, p.MissingField())
		})
	}
}

func TestIdentitySlug(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Acme Rocketry", "acme-rocketry"},
		{"Acme  Rocketry & Co.", "acme--rocketry--co"},
		{"ALREADY-slugged", "already-slugged"},
		{"  padded  ", "padded"},
		{"数字", ""},
	}
	for _, tt := range tests {
		b := BusinessIdentity{Name: tt.name}
		assert.Equal(t, tt.want, b.Slug(), "name %q", tt.name)
	}
}

func TestIdentityDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.acme.example/about", "acme.example"},
		{"http://acme.example:8080", "acme.example"},
		{"acme.example", "acme.example"},
		{"WWW.Acme.Example", "acme.example"},
		{"", ""},
		{"://broken", ""},
	}
	for _, tt := range tests {
		b := BusinessIdentity{WebsiteURL: tt.url}
		assert.Equal(t, tt.want, b.Domain(), "url %q", tt.url)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	p := BusinessProfile{
		Name:             "Acme",
		WebsiteURL:       "https://acme.example",
		ShortDescription: "Rockets",
		Categories:       []string{"hobby"},
	}
	snap := p.Snapshot()
	assert.Equal(t, ProfileSnapshotVersion, snap.SchemaVersion)

	p.Categories[0] = "changed"
	assert.Equal(t, []string{"hobby"}, snap.Categories)
}
