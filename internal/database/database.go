package database

import (
	"context"
	"errors"
)

var (
	ErrTimeout       = errors.New("operation timed out")
	ErrBackupFailed  = errors.New("backup failed")
	ErrDropFailed    = errors.New("drop database failed")
	ErrCreateFailed  = errors.New("create database failed")
	ErrRestoreFailed = errors.New("restore failed")

	// ErrDatabaseInUse means DROP DATABASE was refused because of active
	// connections; the operator has to stop services or close sessions first.
	ErrDatabaseInUse = errors.New("database is being accessed by other users")
)

type Database interface {
	GetName() string
	GetEngine() string
	GetPath() string
	Backup(ctx context.Context) (backupPath string, err error)
	Drop(ctx context.Context) error
	Create(ctx context.Context) error
	Restore(ctx context.Context, filename string) error
}
