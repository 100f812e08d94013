package model

import "strings"

// Validate checks the fields a scan depends on.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Msg: "profile name is required"}
	}
	for _, k := range p.Keywords {
		if strings.TrimSpace(k) != "" {
			return nil
		}
	}
	return &ValidationError{Msg: "at least one keyword is required"}
}
