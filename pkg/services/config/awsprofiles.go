package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

// ProfileRegistry lists the named profiles of an AWS shared config or credentials file.
type ProfileRegistry interface {
	GetProfiles(ctx context.Context) ([]Profile, error)
	GetProfile(ctx context.Context, name string) (Profile, error)
}

type Profile struct {
	Name   string
	Region string
	// Source is "sso", "role", "static" or "" when the profile only carries settings.
	Source string
}

type iniRegistry struct {
	cfg *ini.File
}

// DefaultSharedConfigPath honours AWS_CONFIG_FILE like the SDK does.
func DefaultSharedConfigPath() string {
	if path := os.Getenv("AWS_CONFIG_FILE"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".aws", "config")
	}
	return filepath.Join(home, ".aws", "config")
}

func NewProfileRegistry(path string) (ProfileRegistry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config %s: %w", path, err)
	}
	return &iniRegistry{cfg: cfg}, nil
}

func (r *iniRegistry) GetProfiles(_ context.Context) ([]Profile, error) {
	var profiles []Profile
	for _, section := range r.cfg.Sections() {
		if len(section.Keys()) == 0 || strings.HasPrefix(section.Name(), "sso-session ") {
			continue
		}
		profiles = append(profiles, profileFromSection(section))
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles, nil
}

func (r *iniRegistry) GetProfile(_ context.Context, name string) (Profile, error) {
	for _, sectionName := range []string{"profile " + name, name} {
		section, err := r.cfg.GetSection(sectionName)
		if err == nil && len(section.Keys()) > 0 {
			return profileFromSection(section), nil
		}
	}
	return Profile{}, fmt.Errorf("profile %s not found", name)
}

func profileFromSection(section *ini.Section) Profile {
	p := Profile{
		Name:   strings.TrimPrefix(section.Name(), "profile "),
		Region: section.Key("region").String(),
	}
	switch {
	case section.HasKey("sso_start_url") || section.HasKey("sso_session"):
		p.Source = "sso"
	case section.HasKey("role_arn"):
		p.Source = "role"
	case section.HasKey("aws_access_key_id"):
		p.Source = "static"
	}
	return p
}
