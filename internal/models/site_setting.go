// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// SiteSetting represents a single configuration key-value pair.
type SiteSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SiteSettings is a convenience map for accessing settings by key.
type SiteSettings map[string]string

// Get returns the value for a key, or the fallback if the key doesn't exist.
func (s SiteSettings) Get(key, fallback string) string {
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Setting keys backing SchoolConfig.
const (
	SettingSchoolName        = "school_name"
	SettingSlogan            = "slogan"
	SettingLogoRef           = "logo_ref"
	SettingAddress           = "address"
	SettingPhone             = "phone"
	SettingEmail             = "email"
	SettingPrimaryColor      = "primary_color"
	SettingShowWelcomeBanner = "show_welcome_banner"
	SettingFooterText        = "footer_text"
)

// SchoolConfig is the site-wide configuration aggregate. It is read once per
// request and handed to whatever needs it; nothing holds it globally.
type SchoolConfig struct {
	SchoolName        string
	Slogan            string
	LogoRef           string
	Address           string
	Phone             string
	Email             string
	PrimaryColor      string
	ShowWelcomeBanner bool
	FooterText        string
}

// DefaultSchoolConfig is used for any setting that has not been saved yet.
func DefaultSchoolConfig() SchoolConfig {
	return SchoolConfig{
		SchoolName:        "Trường THCS",
		Slogan:            "Dạy tốt - Học tốt",
		PrimaryColor:      DefaultBlockColor,
		ShowWelcomeBanner: true,
	}
}

// SchoolConfigFrom builds a SchoolConfig from stored settings, falling back
// to DefaultSchoolConfig for missing keys.
func SchoolConfigFrom(s SiteSettings) SchoolConfig {
	def := DefaultSchoolConfig()
	return SchoolConfig{
		SchoolName:        s.Get(SettingSchoolName, def.SchoolName),
		Slogan:            s.Get(SettingSlogan, def.Slogan),
		LogoRef:           s.Get(SettingLogoRef, def.LogoRef),
		Address:           s.Get(SettingAddress, def.Address),
		Phone:             s.Get(SettingPhone, def.Phone),
		Email:             s.Get(SettingEmail, def.Email),
		PrimaryColor:      s.Get(SettingPrimaryColor, def.PrimaryColor),
		ShowWelcomeBanner: s.Get(SettingShowWelcomeBanner, "true") == "true",
		FooterText:        s.Get(SettingFooterText, def.FooterText),
	}
}

// Settings flattens the config back into key-value pairs for storage.
func (c SchoolConfig) Settings() map[string]string {
	banner := "false"
	if c.ShowWelcomeBanner {
		banner = "true"
	}
	return map[string]string{
		SettingSchoolName:        c.SchoolName,
		SettingSlogan:            c.Slogan,
		SettingLogoRef:           c.LogoRef,
		SettingAddress:           c.Address,
		SettingPhone:             c.Phone,
		SettingEmail:             c.Email,
		SettingPrimaryColor:      c.PrimaryColor,
		SettingShowWelcomeBanner: banner,
		SettingFooterText:        c.FooterText,
	}
}
