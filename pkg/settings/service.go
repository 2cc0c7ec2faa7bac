package settings

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"pustaka/pkg/cache"
	"pustaka/pkg/common"
	"pustaka/pkg/jsonapi"
	"pustaka/pkg/logger"
	"pustaka/pkg/models"
)

// DefaultCacheTTL bounds how long a decoded setting may be served without
// rereading the table.
const DefaultCacheTTL = 5 * time.Minute

const cacheKeyPrefix = "settings:"

// Value is one decoded setting. Raw carries the stored encoding, Decoded
// the parsed value; when the raw text is not valid legacy encoding the
// raw string itself is the decoded value.
type Value struct {
	Name    string      `json:"name"`
	Raw     *string     `json:"raw"`
	Decoded interface{} `json:"decoded"`
}

// Service reads and writes settings with a decode cache in front of the
// table.
type Service struct {
	db    common.Database
	cache *cache.Cache
	ttl   time.Duration
}

// NewService creates a settings service. ttl <= 0 falls back to
// DefaultCacheTTL.
func NewService(db common.Database, c *cache.Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{db: db, cache: c, ttl: ttl}
}

// Get resolves a setting by name, serving from cache when possible.
func (s *Service) Get(ctx context.Context, name string) (*Value, error) {
	var cached Value
	if err := s.cache.Get(ctx, cacheKeyPrefix+name, &cached); err == nil {
		return &cached, nil
	}

	var rows []models.Setting
	err := s.db.NewSelect().
		Table("setting").
		Where("setting_name = ?", name).
		Limit(1).
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, jsonapi.NewNotFoundError("settings", name)
	}

	value := decodeRow(&rows[0])
	if err := s.cache.Set(ctx, cacheKeyPrefix+name, value, s.ttl); err != nil {
		logger.Warn("Failed to cache setting %s: %v", name, err)
	}
	return value, nil
}

// GetPath resolves a setting by dot path: the first segment is the
// setting name, the rest walks the decoded value. A path below a missing
// branch yields a nil decoded value, not an error.
func (s *Service) GetPath(ctx context.Context, path string) (*Value, error) {
	name, rest, nested := strings.Cut(path, ".")
	value, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if !nested {
		return value, nil
	}

	resolved := &Value{Name: path, Raw: value.Raw}
	encoded, err := json.Marshal(value.Decoded)
	if err != nil {
		return nil, err
	}
	if result := gjson.GetBytes(encoded, rest); result.Exists() {
		resolved.Decoded = result.Value()
	}
	return resolved, nil
}

// Set stores a whole setting value, creating the row when absent, and
// invalidates the cache entry.
func (s *Service) Set(ctx context.Context, name string, value interface{}) (*Value, error) {
	raw, err := Encode(value)
	if err != nil {
		return nil, jsonapi.NewBodyValidationError("invalid_value",
			"Value cannot be stored in the setting encoding", "/data/attributes/value")
	}

	exists, err := s.db.NewSelect().
		Table("setting").
		Where("setting_name = ?", name).
		Exists(ctx)
	if err != nil {
		return nil, err
	}

	if exists {
		_, err = s.db.NewUpdate().
			Table("setting").
			SetMap(map[string]interface{}{"setting_value": raw}).
			Where("setting_name = ?", name).
			Exec(ctx)
	} else {
		row := map[string]interface{}{"setting_name": name, "setting_value": raw}
		_, err = s.db.NewInsert().Model(&row).Table("setting").Exec(ctx)
	}
	if err != nil {
		return nil, err
	}

	if cerr := s.cache.Delete(ctx, cacheKeyPrefix+name); cerr != nil {
		logger.Warn("Failed to invalidate setting %s: %v", name, cerr)
	}
	return &Value{Name: name, Raw: &raw, Decoded: value}, nil
}

// SetPath updates one nested path inside a setting. The setting must
// already exist; the untouched branches are preserved.
func (s *Service) SetPath(ctx context.Context, path string, value interface{}) (*Value, error) {
	name, rest, nested := strings.Cut(path, ".")
	if !nested {
		return s.Set(ctx, name, value)
	}

	current, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(current.Decoded)
	if err != nil {
		return nil, err
	}
	patched, err := sjson.SetBytes(encoded, rest, value)
	if err != nil {
		return nil, jsonapi.NewBodyValidationError("invalid_path",
			"Cannot set the requested path", "/data/attributes/value")
	}

	var merged interface{}
	if err := json.Unmarshal(patched, &merged); err != nil {
		return nil, err
	}
	return s.Set(ctx, name, merged)
}

// List returns one page of settings ordered by name, plus the total.
func (s *Service) List(ctx context.Context, page jsonapi.Page) ([]*Value, int, error) {
	total, err := s.db.NewSelect().Table("setting").Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	var rows []models.Setting
	err = s.db.NewSelect().
		Table("setting").
		Order("setting_name ASC").
		Limit(page.Size).
		Offset(page.Offset()).
		Scan(ctx, &rows)
	if err != nil {
		return nil, 0, err
	}

	values := make([]*Value, len(rows))
	for i := range rows {
		values[i] = decodeRow(&rows[i])
	}
	return values, total, nil
}

// decodeRow parses a setting row, falling back to the raw text when the
// stored value is not valid legacy encoding.
func decodeRow(row *models.Setting) *Value {
	value := &Value{Name: row.SettingName, Raw: row.SettingValue}
	if row.SettingValue == nil {
		return value
	}
	decoded, err := Decode(*row.SettingValue)
	if err != nil {
		value.Decoded = *row.SettingValue
		return value
	}
	value.Decoded = decoded
	return value
}
