package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

const (
	DriverName      = "mysql"
	DefaultDatabase = "itops"
)

// MysqlConfig 业务服务与 SLA 数据库连接配置。
type MysqlConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN 返回 go-sql-driver/mysql 格式的连接串。
func (c MysqlConfig) DSN() string {
	database := c.Database
	if database == "" {
		database = DefaultDatabase
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=Local",
		c.Username, c.Password, c.Host, c.Port, database)
}

// NewDB 打开连接池并探活。
func NewDB(ctx context.Context, cfg MysqlConfig) (*sql.DB, error) {
	if cfg.Host == "" {
		return nil, errors.New("mysql host 不能为空")
	}

	db, err := sql.Open(DriverName, cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "打开 mysql 连接失败")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "mysql ping 失败")
	}

	maxOpen, maxIdle, lifetime := cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime
	if maxOpen <= 0 {
		maxOpen = 100
	}
	if maxIdle <= 0 {
		maxIdle = 20
	}
	if lifetime <= 0 {
		lifetime = 100 * time.Second
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)
	return db, nil
}
