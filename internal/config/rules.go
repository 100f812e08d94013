package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"leadsync/internal/urlnorm"
)

// Rules extends URL normalization without code changes.
//
//	trackingParams: [mc_cid, mc_eid]
//	hostRules:
//	  - canonical: www.example-forum.com
//	    variants: [example-forum.com, m.example-forum.com]
type Rules struct {
	TrackingParams []string           `yaml:"trackingParams"`
	HostRules      []urlnorm.HostRule `yaml:"hostRules"`
}

// LoadRules reads a YAML rules file. Unknown fields are rejected so typos
// surface at startup.
func LoadRules(path string) (*Rules, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer f.Close()

	var r Rules
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	return &r, nil
}

// Normalizer builds a normalizer with the defaults plus these rules.
func (r *Rules) Normalizer() *urlnorm.Normalizer {
	return urlnorm.New(
		urlnorm.WithTrackingParams(r.TrackingParams...),
		urlnorm.WithHostRules(r.HostRules...),
	)
}

// ApplyRules loads path, when set, and installs the result as
// urlnorm.Default. Call once before serving.
func ApplyRules(path string) error {
	if path == "" {
		return nil
	}
	r, err := LoadRules(path)
	if err != nil {
		return err
	}
	urlnorm.Default = r.Normalizer()
	return nil
}
