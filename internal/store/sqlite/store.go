package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"prowl/internal/store/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Keys of the persisted account/config state.
const (
	KeyBalance        = "balance"
	KeyScore          = "score"
	KeyReportTime     = "report_time"
	KeyLeverage       = "leverage"
	KeyManualAmount   = "manual_amount"
	KeyAvailablePairs = "available_pairs"
)

// Store implements config, trade-log and ledger persistence on Gorm + SQLite.
type Store struct {
	db *gorm.DB
}

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite failed: %w", err)
	}
	if err := db.AutoMigrate(&model.ConfigEntry{}, &model.TradeRecord{}); err != nil {
		return nil, fmt.Errorf("migrating schema failed: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Get(key, def string) (string, error) {
	var entry model.ConfigEntry
	err := s.db.First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	return entry.Value, nil
}

func (s *Store) Set(key, value string) error {
	entry := model.ConfigEntry{Key: key, Value: value}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&entry).Error
}

func (s *Store) All() (map[string]string, error) {
	var entries []model.ConfigEntry
	if err := s.db.Find(&entries).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Key] = e.Value
	}
	return out, nil
}

func (s *Store) Append(ctx context.Context, trade model.TradeRecord) error {
	return s.db.WithContext(ctx).Create(&trade).Error
}

func (s *Store) Recent(ctx context.Context, limit int) ([]model.TradeRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var trades []model.TradeRecord
	err := s.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&trades).Error
	return trades, err
}

func (s *Store) OutcomeTally(ctx context.Context) (map[string]map[string]int, error) {
	type row struct {
		Symbol  string
		Outcome string
		N       int
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&model.TradeRecord{}).
		Select("symbol, outcome, count(*) as n").
		Group("symbol").Group("outcome").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]int)
	for _, r := range rows {
		if out[r.Symbol] == nil {
			out[r.Symbol] = make(map[string]int)
		}
		out[r.Symbol][r.Outcome] = r.N
	}
	return out, nil
}

// ApplyOutcome appends the trade and shifts balance/score atomically: the
// controller's accounting must never observe a trade without its deltas.
func (s *Store) ApplyOutcome(ctx context.Context, trade model.TradeRecord, balanceDelta, scoreDelta float64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		balance, err := readFloat(tx, KeyBalance)
		if err != nil {
			return err
		}
		score, err := readFloat(tx, KeyScore)
		if err != nil {
			return err
		}
		if err := upsert(tx, KeyBalance, formatFloat(balance+balanceDelta)); err != nil {
			return err
		}
		if err := upsert(tx, KeyScore, formatFloat(score+scoreDelta)); err != nil {
			return err
		}
		return tx.Create(&trade).Error
	})
}

func readFloat(tx *gorm.DB, key string) (float64, error) {
	var entry model.ConfigEntry
	err := tx.First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(entry.Value), 64)
	if err != nil {
		return 0, fmt.Errorf("config key %s holds non-numeric value %q", key, entry.Value)
	}
	return f, nil
}

func upsert(tx *gorm.DB, key, value string) error {
	entry := model.ConfigEntry{Key: key, Value: value}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&entry).Error
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
