package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"schoolportal/internal/blocks"
	"schoolportal/internal/models"
)

// Validation limits for the school configuration form.
const (
	maxSchoolNameLen = 200
	maxSloganLen     = 300
	maxAddressLen    = 500
	maxFooterLen     = 2_000
)

var settingsHexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// blockForm is a parsed block form. ItemCountErr is set when the count
// field was not a number, which the service cannot see.
type blockForm struct {
	Block        models.DisplayBlock
	ItemCountErr string
}

// parseBlockForm reads the block fields from a submitted form on top of
// the new-block defaults.
func parseBlockForm(r *http.Request) blockForm {
	f := blockForm{Block: blocks.NewDraft()}
	b := &f.Block

	b.Name = r.FormValue("name")
	b.Type = models.BlockType(r.FormValue("type"))
	b.Position = models.Position(r.FormValue("position"))
	b.TargetPage = models.TargetPage(r.FormValue("target_page"))
	b.Source = models.Source(r.FormValue("source"))
	b.RawMarkup = r.FormValue("raw_markup")
	b.CustomColor = r.FormValue("custom_color")
	b.CustomTextColor = r.FormValue("custom_text_color")
	b.IsVisible = r.FormValue("is_visible") == "true"

	if raw := strings.TrimSpace(r.FormValue("item_count")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			f.ItemCountErr = "Số mục phải là một số nguyên."
		} else {
			b.ItemCount = n
		}
	}
	return f
}

// patch turns the full form into an update that overwrites every field
// the form carries.
func (f blockForm) patch() blocks.BlockPatch {
	b := f.Block
	return blocks.BlockPatch{
		Name:            &b.Name,
		Position:        &b.Position,
		Type:            &b.Type,
		ItemCount:       &b.ItemCount,
		IsVisible:       &b.IsVisible,
		TargetPage:      &b.TargetPage,
		Source:          &b.Source,
		RawMarkup:       &b.RawMarkup,
		CustomColor:     &b.CustomColor,
		CustomTextColor: &b.CustomTextColor,
	}
}

// blockErrorMessages turns a service error into per-field messages, or
// nil when err is not a validation failure.
func blockErrorMessages(err error) map[string]string {
	var verr *blocks.ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	msgs := verr.Messages()
	for field, sentinel := range map[string]error{
		"name":        blocks.ErrNameRequired,
		"source":      blocks.ErrUnknownCategory,
		"type":        blocks.ErrInvalidType,
		"position":    blocks.ErrInvalidPosition,
		"target_page": blocks.ErrInvalidTarget,
	} {
		if errors.Is(verr.Fields[field], sentinel) {
			msgs[field] = blockSentinelMessages[sentinel]
		}
	}
	return msgs
}

var blockSentinelMessages = map[error]string{
	blocks.ErrNameRequired:    "Tên khối không được để trống.",
	blocks.ErrUnknownCategory: "Chuyên mục nguồn không tồn tại.",
	blocks.ErrInvalidType:     "Kiểu hiển thị không hợp lệ.",
	blocks.ErrInvalidPosition: "Vị trí không hợp lệ.",
	blocks.ErrInvalidTarget:   "Trang hiển thị không hợp lệ.",
}

// parseSettingsForm reads the school configuration form.
func parseSettingsForm(r *http.Request) models.SchoolConfig {
	return models.SchoolConfig{
		SchoolName:        strings.TrimSpace(r.FormValue("school_name")),
		Slogan:            strings.TrimSpace(r.FormValue("slogan")),
		LogoRef:           strings.TrimSpace(r.FormValue("logo_ref")),
		Address:           strings.TrimSpace(r.FormValue("address")),
		Phone:             strings.TrimSpace(r.FormValue("phone")),
		Email:             strings.TrimSpace(r.FormValue("email")),
		PrimaryColor:      strings.TrimSpace(r.FormValue("primary_color")),
		ShowWelcomeBanner: r.FormValue("show_welcome_banner") == "true",
		FooterText:        strings.TrimSpace(r.FormValue("footer_text")),
	}
}

// validateSettings checks the school configuration and returns messages
// keyed by form field, or nil when it is valid.
func validateSettings(cfg models.SchoolConfig) map[string]string {
	err := validation.Errors{
		"school_name": validation.Validate(cfg.SchoolName,
			validation.Required.Error("Tên trường không được để trống."),
			validation.RuneLength(0, maxSchoolNameLen).Error("Tên trường quá dài."),
		),
		"slogan":        validation.Validate(cfg.Slogan, validation.RuneLength(0, maxSloganLen).Error("Khẩu hiệu quá dài.")),
		"address":       validation.Validate(cfg.Address, validation.RuneLength(0, maxAddressLen).Error("Địa chỉ quá dài.")),
		"footer_text":   validation.Validate(cfg.FooterText, validation.RuneLength(0, maxFooterLen).Error("Chân trang quá dài.")),
		"email":         validation.Validate(cfg.Email, is.EmailFormat.Error("Email không hợp lệ.")),
		"primary_color": validation.Validate(cfg.PrimaryColor, validation.Match(settingsHexColor).Error("Màu phải có dạng #1e3a8a.")),
	}.Filter()
	if err == nil {
		return nil
	}

	msgs := map[string]string{}
	var fields validation.Errors
	if errors.As(err, &fields) {
		for k, e := range fields {
			msgs[k] = e.Error()
		}
	}
	return msgs
}
