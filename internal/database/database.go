package database

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	db *gorm.DB
}

// ErrSessionActive is returned by StartSession when another session already
// has Status=true.
var ErrSessionActive = errors.New("a trading session is already active")

// Models

// Wallet is a signing wallet managed out of band. Address and PrivateKey are
// stored as raw strings and may carry surrounding quote characters left over
// from JSON serialization; consumers strip them before use.
type Wallet struct {
	ID         uint `gorm:"primaryKey;autoIncrement"`
	Address    string
	PrivateKey string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TradingSession is one configured buy/sell cycle definition. At most one row
// has Status=true at a time; the invariant is enforced by StartSession, not by
// a database constraint. Rows are never deleted.
type TradingSession struct {
	ID         uint            `gorm:"primaryKey;autoIncrement"`
	Token      string          // ERC20 contract address
	BuyAmount  decimal.Decimal `gorm:"type:decimal(30,18)"`
	SellAmount decimal.Decimal `gorm:"type:decimal(30,18)"`
	Frequency  int             // seconds between swaps
	Slippage   decimal.Decimal `gorm:"type:decimal(10,4)"` // accepted but unused by the trading loop
	WalletID   uint            `gorm:"index"`
	Status     bool            `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Transaction is an append-only record of one completed swap.
type Transaction struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Hash      string `gorm:"index"`
	Eth       string // native-asset side of the swap
	Token     string // token side of the swap (price-query estimate)
	Address   string // token contract
	Action    string // "BUY" or "SELL"
	Status    bool
	CreatedAt time.Time
}

// TradingLog is an append-only free-text event record.
type TradingLog struct {
	ID         uint `gorm:"primaryKey;autoIncrement"`
	LogContent string
	CreatedAt  time.Time
}

func New(dbPath string) (*Database, error) {
	var db *gorm.DB
	var err error

	// Check if this is a PostgreSQL connection string
	if strings.HasPrefix(dbPath, "postgres://") || strings.HasPrefix(dbPath, "postgresql://") {
		// PostgreSQL connection
		db, err = gorm.Open(postgres.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Database connected (PostgreSQL)")
	} else {
		// SQLite fallback
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", dbPath).Msg("Database initialized (SQLite)")
	}

	// Auto migrate all models
	if err := db.AutoMigrate(&Wallet{}, &TradingSession{}, &Transaction{}, &TradingLog{}); err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

// Wallet operations

func (d *Database) GetWallet(id uint) (*Wallet, error) {
	var wallet Wallet
	err := d.db.First(&wallet, "id = ?", id).Error
	return &wallet, err
}

func (d *Database) SaveWallet(wallet *Wallet) error {
	return d.db.Save(wallet).Error
}

// Session operations

// LatestSession returns the most-recently-created session row regardless of
// status. This row is authoritative for both the trading config and the
// wallet; callers get gorm.ErrRecordNotFound when no session was ever created.
func (d *Database) LatestSession() (*TradingSession, error) {
	var session TradingSession
	err := d.db.Order("created_at DESC").First(&session).Error
	return &session, err
}

func (d *Database) ActiveSessions() ([]TradingSession, error) {
	var sessions []TradingSession
	err := d.db.Where("status = ?", true).Find(&sessions).Error
	return sessions, err
}

func (d *Database) HasActiveSession() (bool, error) {
	return hasActiveSession(d.db)
}

func hasActiveSession(db *gorm.DB) (bool, error) {
	var count int64
	err := db.Model(&TradingSession{}).Where("status = ?", true).Count(&count).Error
	return count > 0, err
}

// StartSession activates the session's wallet and inserts the session row in
// one transaction. The active-session check runs inside the same transaction,
// so a concurrent start cannot leave two wallets or two sessions active: the
// loser gets ErrSessionActive.
func (d *Database) StartSession(session *TradingSession) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		active, err := hasActiveSession(tx)
		if err != nil {
			return err
		}
		if active {
			return ErrSessionActive
		}
		if err := tx.Model(&Wallet{}).Where("active = ?", true).Update("active", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&Wallet{}).Where("id = ?", session.WalletID).Update("active", true).Error; err != nil {
			return err
		}
		return tx.Create(session).Error
	})
}

// StopActiveSessions flips every active session to inactive. Idempotent.
func (d *Database) StopActiveSessions() error {
	return d.db.Model(&TradingSession{}).Where("status = ?", true).Update("status", false).Error
}

// Transaction operations

func (d *Database) SaveTransaction(txn *Transaction) error {
	return d.db.Create(txn).Error
}

func (d *Database) RecentTransactions(limit int) ([]Transaction, error) {
	var txns []Transaction
	err := d.db.Order("created_at DESC").Limit(limit).Find(&txns).Error
	return txns, err
}

// Log operations

func (d *Database) SaveLog(content string) error {
	return d.db.Create(&TradingLog{LogContent: content}).Error
}

func (d *Database) RecentLogs(limit int) ([]TradingLog, error) {
	var logs []TradingLog
	err := d.db.Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
