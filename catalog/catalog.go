// Package catalog loads and caches the reference tables: materials, window
// types, brands, options and pricing configuration. Lookups never fail a
// pricing call; a miss yields a 1.0 multiplier.
package catalog

import (
	"sort"
	"strings"
	"sync"
	"time"

	"windowquote-backend/models"
	"windowquote-backend/pricing"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Per-category cache TTLs.
const (
	MaterialsTTL = 2 * time.Hour
	ProductsTTL  = 1 * time.Hour
	PricingTTL   = 30 * time.Minute
)

type table struct {
	values   map[string]float64
	loadedAt time.Time
	ttl      time.Duration
}

func (t *table) fresh(now time.Time) bool {
	return t.values != nil && now.Sub(t.loadedAt) < t.ttl
}

// rowCache holds the full row list for one category, under the same TTL
// discipline as the multiplier tables.
type rowCache[T any] struct {
	rows     []T
	loadedAt time.Time
	ttl      time.Duration
}

func (r *rowCache[T]) fresh(now time.Time) bool {
	return r.rows != nil && now.Sub(r.loadedAt) < r.ttl
}

// Catalog is the only process-wide mutable state. Refreshes may race;
// duplicate loads are idempotent and last write wins.
type Catalog struct {
	db  *gorm.DB
	log *zap.Logger

	mu        sync.RWMutex
	materials table
	types     table
	brands    table

	materialRows rowCache[models.Material]
	typeRows     rowCache[models.WindowType]
	brandRows    rowCache[models.WindowBrand]
	optionRows   rowCache[models.WindowOption]

	pricingCfg      *pricing.Config
	pricingLoadedAt time.Time
}

func New(db *gorm.DB, log *zap.Logger) *Catalog {
	return &Catalog{
		db:  db,
		log: log,
		materials: table{ttl: MaterialsTTL},
		types:     table{ttl: ProductsTTL},
		brands:    table{ttl: ProductsTTL},

		materialRows: rowCache[models.Material]{ttl: MaterialsTTL},
		typeRows:     rowCache[models.WindowType]{ttl: ProductsTTL},
		brandRows:    rowCache[models.WindowBrand]{ttl: ProductsTTL},
		optionRows:   rowCache[models.WindowOption]{ttl: ProductsTTL},
	}
}

// Materials returns the material catalog with its count, cached for
// MaterialsTTL.
func (c *Catalog) Materials() ([]models.Material, int) {
	return cachedRows(c, &c.materialRows, c.loadMaterialRows, fallbackMaterials)
}

// WindowTypes returns the window type catalog with its count.
func (c *Catalog) WindowTypes() ([]models.WindowType, int) {
	return cachedRows(c, &c.typeRows, c.loadTypeRows, fallbackTypes)
}

// Brands returns the brand catalog with its count.
func (c *Catalog) Brands() ([]models.WindowBrand, int) {
	return cachedRows(c, &c.brandRows, c.loadBrandRows, fallbackBrands)
}

// Options returns the add-on option catalog with its count.
func (c *Catalog) Options() ([]models.WindowOption, int) {
	return cachedRows(c, &c.optionRows, c.loadOptionRows, fallbackOptions)
}

// cachedRows is the read path shared by the four list lookups: serve a
// fresh cache, otherwise reload; on a backend error serve the last good
// rows if present, else the built-in defaults. An empty table also serves
// the defaults, and they are cached like loaded rows.
func cachedRows[T any](c *Catalog, cache *rowCache[T], load func() ([]T, error), fallback func() []T) ([]T, int) {
	now := time.Now()
	c.mu.RLock()
	if cache.fresh(now) {
		rows := cache.rows
		c.mu.RUnlock()
		return rows, len(rows)
	}
	last := cache.rows
	c.mu.RUnlock()

	rows, err := load()
	if err != nil {
		if last != nil {
			return last, len(last)
		}
		rows = fallback()
		return rows, len(rows)
	}
	if len(rows) == 0 {
		rows = fallback()
	}

	c.mu.Lock()
	cache.rows = rows
	cache.loadedAt = now
	c.mu.Unlock()
	return rows, len(rows)
}

func (c *Catalog) loadMaterialRows() ([]models.Material, error) {
	var rows []models.Material
	if err := c.db.Where("is_active = ?", true).Order("name").Find(&rows).Error; err != nil {
		c.log.Warn("materials load failed", zap.Error(err))
		return nil, err
	}
	return rows, nil
}

func (c *Catalog) loadTypeRows() ([]models.WindowType, error) {
	var rows []models.WindowType
	if err := c.db.Where("is_active = ?", true).Order("name").Find(&rows).Error; err != nil {
		c.log.Warn("window types load failed", zap.Error(err))
		return nil, err
	}
	return rows, nil
}

func (c *Catalog) loadBrandRows() ([]models.WindowBrand, error) {
	var rows []models.WindowBrand
	if err := c.db.Where("is_active = ?", true).Order("name").Find(&rows).Error; err != nil {
		c.log.Warn("brands load failed", zap.Error(err))
		return nil, err
	}
	return rows, nil
}

func (c *Catalog) loadOptionRows() ([]models.WindowOption, error) {
	var rows []models.WindowOption
	if err := c.db.Where("is_active = ?", true).Order("name").Find(&rows).Error; err != nil {
		c.log.Warn("options load failed", zap.Error(err))
		return nil, err
	}
	return rows, nil
}

// PricingConfig returns the active configuration, cached for PricingTTL.
// Built-in defaults serve when no row exists.
func (c *Catalog) PricingConfig() pricing.Config {
	now := time.Now()
	c.mu.RLock()
	if c.pricingCfg != nil && now.Sub(c.pricingLoadedAt) < PricingTTL {
		cfg := *c.pricingCfg
		c.mu.RUnlock()
		return cfg
	}
	c.mu.RUnlock()

	var row models.PricingConfigRow
	err := c.db.Where("is_active = ?", true).Order("updated_at DESC").First(&row).Error
	if err != nil {
		c.mu.RLock()
		last := c.pricingCfg
		c.mu.RUnlock()
		if last != nil {
			return *last
		}
		return pricing.DefaultConfig()
	}

	cfg := pricing.Config{
		PricePerUI:        row.PricePerUI,
		SalesMarkup:       row.SalesMarkup,
		InstallationRate:  row.InstallationRate,
		TaxRate:           row.TaxRate,
		HiddenMarkup:      row.HiddenMarkup,
		ApplyHiddenMarkup: row.ApplyHiddenMarkup,
		LaborBaseRate:     row.LaborBaseRate,
		MinimumOrderValue: row.MinimumOrderValue,
	}

	c.mu.Lock()
	c.pricingCfg = &cfg
	c.pricingLoadedAt = now
	c.mu.Unlock()
	return cfg
}

// MaterialMultiplier returns the multiplier for a material name, 1.0 on miss.
func (c *Catalog) MaterialMultiplier(name string) float64 {
	return c.multiplier(&c.materials, c.loadMaterials, defaultMaterials, name)
}

// TypeMultiplier returns the multiplier for a window type name, 1.0 on miss.
func (c *Catalog) TypeMultiplier(name string) float64 {
	return c.multiplier(&c.types, c.loadTypes, defaultTypes, name)
}

// BrandMultiplier returns the multiplier for a brand name, matched
// case-insensitively, 1.0 on miss.
func (c *Catalog) BrandMultiplier(name string) float64 {
	return c.multiplier(&c.brands, c.loadBrands, defaultBrands, name)
}

func (c *Catalog) multiplier(t *table, load func() (map[string]float64, error), defaults map[string]float64, name string) float64 {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return 1.0
	}

	now := time.Now()
	c.mu.RLock()
	if t.fresh(now) {
		v, ok := t.values[key]
		c.mu.RUnlock()
		if ok {
			return v
		}
		return 1.0
	}
	last := t.values
	c.mu.RUnlock()

	values, err := load()
	if err != nil || len(values) == 0 {
		// serve the last good value if present, else built-in defaults
		if last != nil {
			if v, ok := last[key]; ok {
				return v
			}
		}
		if v, ok := defaults[key]; ok {
			return v
		}
		return 1.0
	}

	c.mu.Lock()
	t.values = values
	t.loadedAt = now
	c.mu.Unlock()

	if v, ok := values[key]; ok {
		return v
	}
	return 1.0
}

func (c *Catalog) loadMaterials() (map[string]float64, error) {
	var rows []models.Material
	if err := c.db.Where("is_active = ?", true).Find(&rows).Error; err != nil {
		c.log.Warn("material multiplier load failed", zap.Error(err))
		return nil, err
	}
	if len(rows) == 0 {
		return copyTable(defaultMaterials), nil
	}
	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		out[strings.ToLower(r.Name)] = r.Multiplier
	}
	return out, nil
}

func (c *Catalog) loadTypes() (map[string]float64, error) {
	var rows []models.WindowType
	if err := c.db.Where("is_active = ?", true).Find(&rows).Error; err != nil {
		c.log.Warn("type multiplier load failed", zap.Error(err))
		return nil, err
	}
	if len(rows) == 0 {
		return copyTable(defaultTypes), nil
	}
	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		out[strings.ToLower(r.Name)] = r.Multiplier
	}
	return out, nil
}

func (c *Catalog) loadBrands() (map[string]float64, error) {
	var rows []models.WindowBrand
	if err := c.db.Where("is_active = ?", true).Find(&rows).Error; err != nil {
		c.log.Warn("brand multiplier load failed", zap.Error(err))
		return nil, err
	}
	if len(rows) == 0 {
		return copyTable(defaultBrands), nil
	}
	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		out[strings.ToLower(r.Name)] = r.Multiplier
	}
	return out, nil
}

// Invalidate drops every cached category so the next read loads fresh.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.materials.values = nil
	c.types.values = nil
	c.brands.values = nil
	c.materialRows.rows = nil
	c.typeRows.rows = nil
	c.brandRows.rows = nil
	c.optionRows.rows = nil
	c.pricingCfg = nil
}

// Refresh forces an immediate reload of the multiplier tables and warms
// the row lists.
func (c *Catalog) Refresh() {
	c.Invalidate()
	now := time.Now()
	for _, item := range []struct {
		t    *table
		load func() (map[string]float64, error)
	}{
		{&c.materials, c.loadMaterials},
		{&c.types, c.loadTypes},
		{&c.brands, c.loadBrands},
	} {
		values, err := item.load()
		if err != nil {
			continue
		}
		c.mu.Lock()
		item.t.values = values
		item.t.loadedAt = now
		c.mu.Unlock()
	}
	c.Materials()
	c.WindowTypes()
	c.Brands()
	c.Options()
}

func fallbackMaterials() []models.Material {
	names := []string{"aluminum-clad", "cellular-pvc", "composite", "fiberglass", "vinyl", "wood"}
	out := make([]models.Material, 0, len(names))
	for _, n := range names {
		out = append(out, models.Material{Name: n, Multiplier: defaultMaterials[n], IsActive: true})
	}
	return out
}

func fallbackTypes() []models.WindowType {
	names := []string{"awning", "bay", "bow", "casement", "double-hung", "garden", "picture", "single-hung", "sliding"}
	out := make([]models.WindowType, 0, len(names))
	for _, n := range names {
		out = append(out, models.WindowType{
			Name:            n,
			Multiplier:      defaultTypes[n],
			LaborComplexity: pricing.Complexity(n),
			IsActive:        true,
		})
	}
	return out
}

func fallbackBrands() []models.WindowBrand {
	names := []string{"andersen", "harvey", "jeld-wen", "marvin", "milgard", "pella", "simonton", "standard"}
	out := make([]models.WindowBrand, 0, len(names))
	for _, n := range names {
		out = append(out, models.WindowBrand{Name: n, Multiplier: defaultBrands[n], IsActive: true})
	}
	return out
}

func fallbackOptions() []models.WindowOption {
	defaults := defaultOptions()
	names := make([]string, 0, len(defaults))
	for n := range defaults {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]models.WindowOption, 0, len(names))
	for _, n := range names {
		out = append(out, models.WindowOption{Name: n, Price: defaults[n], IsActive: true})
	}
	return out
}
