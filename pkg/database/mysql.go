// Package database 提供了数据库连接的构造函数。
package database

import (
	"fmt"

	"journal-assist-go/internal/model"
	"journal-assist-go/pkg/log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewMySQL 建立 MySQL 连接并自动迁移用户表。
func NewMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("连接 MySQL 失败: %w", err)
	}

	if err := db.AutoMigrate(&model.User{}); err != nil {
		return nil, fmt.Errorf("自动迁移数据库表失败: %w", err)
	}

	log.Info("MySQL 连接成功")
	return db, nil
}
