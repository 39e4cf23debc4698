package settings

import (
	"database/sql"
	"fmt"
	"time"
)

type SettingType string

const (
	SettingTypeNormal SettingType = "normal"
	SettingTypeSecret SettingType = "secret"
)

type Setting struct {
	Key         string      `json:"key"`
	Value       string      `json:"value"`
	Type        SettingType `json:"type"`
	Required    bool        `json:"required"`
	Description string      `json:"description"`
	UpdatedAt   time.Time   `json:"updated_at"`
	HasValue    bool        `json:"has_value"` // whether a secret has been set
}

type SettingsManager struct {
	db *sql.DB
}

func NewSettingsManager(db *sql.DB) *SettingsManager {
	return &SettingsManager{db: db}
}

// DefaultSettings is the closed catalogue of configurable keys. Values set
// here are the defaults used until the key is written.
var DefaultSettings = map[string]Setting{
	// Printer identity
	"PRINTER_TYPE": {
		Key: "PRINTER_TYPE", Value: "usb", Type: SettingTypeNormal, Required: true,
		Description: "Printer transport: usb, cups or bluetooth",
	},
	"USB_DEVICE_PATH": {
		Key: "USB_DEVICE_PATH", Value: "/dev/usb/lp0", Type: SettingTypeNormal, Required: false,
		Description: "Character device for direct USB printing",
	},
	"CUPS_PRINTER_NAME": {
		Key: "CUPS_PRINTER_NAME", Value: "", Type: SettingTypeNormal, Required: false,
		Description: "CUPS queue name for lpr-based printing",
	},
	"PRINTER_ADDRESS": {
		Key: "PRINTER_ADDRESS", Value: "", Type: SettingTypeNormal, Required: false,
		Description: "Bluetooth MAC address of the printer",
	},
	"VENDOR_ID": {
		Key: "VENDOR_ID", Value: "", Type: SettingTypeNormal, Required: false,
		Description: "USB vendor id (hex 0x0483 or decimal)",
	},
	"PRODUCT_ID": {
		Key: "PRODUCT_ID", Value: "", Type: SettingTypeNormal, Required: false,
		Description: "USB product id (hex or decimal)",
	},

	// Print pipeline options
	"DRY_RUN_MODE": {
		Key: "DRY_RUN_MODE", Value: "false", Type: SettingTypeNormal, Required: false,
		Description: "Enable dry run mode (no actual printing)",
	},
	"BEST_QUALITY": {
		Key: "BEST_QUALITY", Value: "true", Type: SettingTypeNormal, Required: false,
		Description: "Enable best quality printing (bluetooth)",
	},
	"DITHER": {
		Key: "DITHER", Value: "true", Type: SettingTypeNormal, Required: false,
		Description: "Enable dithering in the bluetooth driver",
	},
	"AUTO_ROTATE": {
		Key: "AUTO_ROTATE", Value: "false", Type: SettingTypeNormal, Required: false,
		Description: "Let the bluetooth driver rotate to fit its media",
	},
	"BLACK_POINT": {
		Key: "BLACK_POINT", Value: "0", Type: SettingTypeNormal, Required: false,
		Description: "Black point threshold (0-255, bluetooth)",
	},
	"ROTATE_PRINT": {
		Key: "ROTATE_PRINT", Value: "false", Type: SettingTypeNormal, Required: false,
		Description: "Rotate output 180 degrees before printing",
	},

	// Server
	"SERVER_PORT": {
		Key: "SERVER_PORT", Value: "5000", Type: SettingTypeNormal, Required: false,
		Description: "HTTP listen port",
	},
	"DEBUG_MODE": {
		Key: "DEBUG_MODE", Value: "false", Type: SettingTypeNormal, Required: false,
		Description: "Enable debug logging",
	},

	// AI generation
	"GEMINI_API_KEY": {
		Key: "GEMINI_API_KEY", Value: "", Type: SettingTypeSecret, Required: false,
		Description: "Gemini API key for image generation",
	},
}

// GetSetting returns one setting with secrets masked.
func (m *SettingsManager) GetSetting(key string) (*Setting, error) {
	s, err := m.getSetting(key)
	if err != nil {
		return nil, err
	}
	if s.Type == SettingTypeSecret {
		s.HasValue = s.Value != ""
		s.Value = maskSecret(s.Value)
	}
	return s, nil
}

// GetRealValue returns the unmasked stored value, falling back to the
// catalogue default when the key has never been written.
func (m *SettingsManager) GetRealValue(key string) (string, error) {
	s, err := m.getSetting(key)
	if err != nil {
		return "", err
	}
	return s.Value, nil
}

func (m *SettingsManager) getSetting(key string) (*Setting, error) {
	def, ok := DefaultSettings[key]
	if !ok {
		return nil, fmt.Errorf("unknown setting key: %s", key)
	}

	s := def
	var value string
	var updatedAt time.Time
	err := m.db.QueryRow(
		`SELECT value, updated_at FROM settings WHERE key = ?`, key,
	).Scan(&value, &updatedAt)
	switch err {
	case nil:
		s.Value = value
		s.UpdatedAt = updatedAt
	case sql.ErrNoRows:
		// default value stands
	default:
		return nil, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return &s, nil
}

// SetSetting upserts a value for a catalogued key.
func (m *SettingsManager) SetSetting(key, value string) error {
	def, ok := DefaultSettings[key]
	if !ok {
		return fmt.Errorf("unknown setting key: %s", key)
	}

	_, err := m.db.Exec(`INSERT INTO settings (key, value, setting_type, is_required, description, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value, string(def.Type), def.Required, def.Description)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// GetAllSettings returns the whole catalogue with stored overrides applied
// and secrets masked, for the settings API.
func (m *SettingsManager) GetAllSettings() ([]Setting, error) {
	out := make([]Setting, 0, len(DefaultSettings))
	for key := range DefaultSettings {
		s, err := m.GetSetting(key)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

func maskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}
