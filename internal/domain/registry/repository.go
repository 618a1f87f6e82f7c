package registry

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"burnbin/internal/database"
)

// sharedFile is the table row behind DBStore.
type sharedFile struct {
	ID         string `gorm:"column:id;primaryKey"`
	Path       string `gorm:"column:path;not null"`
	Name       string `gorm:"column:name;not null"`
	Size       string `gorm:"column:size"`
	UploadTime string `gorm:"column:upload_time"`
	Downloads  int64  `gorm:"column:downloads;not null;default:0"`
}

func (sharedFile) TableName() string { return "shared_files" }

// DBStore keeps the snapshot in a shared_files table. Each Save replaces the
// table contents in one transaction.
type DBStore struct {
	db *gorm.DB
}

// NewDBStore migrates the shared_files table and returns the store.
func NewDBStore(db *gorm.DB) (*DBStore, error) {
	if err := db.AutoMigrate(&sharedFile{}); err != nil {
		return nil, fmt.Errorf("migrate shared_files: %w", err)
	}
	return &DBStore{db: db}, nil
}

func (s *DBStore) Load(ctx context.Context) (Snapshot, error) {
	var rows []sharedFile
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load shared_files: %w", err)
	}
	snap := make(Snapshot, len(rows))
	for _, row := range rows {
		snap[row.ID] = SnapshotRecord{
			Path:       row.Path,
			Name:       row.Name,
			Size:       row.Size,
			UploadTime: row.UploadTime,
			Downloads:  row.Downloads,
		}
	}
	return snap, nil
}

func (s *DBStore) Save(ctx context.Context, snap Snapshot) error {
	rows := make([]sharedFile, 0, len(snap))
	for id, rec := range snap {
		rows = append(rows, sharedFile{
			ID:         id,
			Path:       rec.Path,
			Name:       rec.Name,
			Size:       rec.Size,
			UploadTime: rec.UploadTime,
			Downloads:  rec.Downloads,
		})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&sharedFile{}).Error; err != nil {
			return fmt.Errorf("clear shared_files: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 100).Error; err != nil {
			return fmt.Errorf("insert shared_files: %w", err)
		}
		return nil
	})
}

// OpenStore picks the snapshot backend: the database behind databaseURL
// when it is set, the JSON document at snapshotPath otherwise. The returned
// closer releases the database connection.
func OpenStore(databaseURL, snapshotPath string) (Store, func() error, error) {
	if databaseURL == "" {
		return NewFileStore(snapshotPath), func() error { return nil }, nil
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	store, err := NewDBStore(db)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("database handle: %w", err)
	}
	return store, sqlDB.Close, nil
}
