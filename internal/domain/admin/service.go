// Package admin is the operator side of the share host: offering local
// files, withdrawing entries and reading activity and transfer statistics.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"burnbin/internal/domain/activity"
	"burnbin/internal/domain/registry"
	"burnbin/internal/domain/session"
	"burnbin/internal/domain/transfer"
	"burnbin/internal/pkg/jwt"
)

// Registry is the part of the file registry the operator manages.
type Registry interface {
	Register(path string, kind registry.Kind, opts ...registry.Option) (string, error)
	Remove(id string) error
	Get(id string) (registry.FileEntry, error)
	GetKind(id string, kind registry.Kind) (registry.FileEntry, error)
	Len(kind registry.Kind) int
	Persist(ctx context.Context) error
}

// Promoter turns an uploaded entry into a shared one.
type Promoter interface {
	Promote(uploadID string) (string, error)
}

// SessionCounter reports sessions per status.
type SessionCounter interface {
	Counts() map[session.Status]int
}

// ActivityReader reads the activity log.
type ActivityReader interface {
	Since(n int) []activity.Entry
	Len() int
}

type Service struct {
	registry     Registry
	promoter     Promoter
	sessions     SessionCounter
	activity     ActivityReader
	metrics      *transfer.Metrics
	jwtService   *jwt.Service
	passwordHash string
}

type Deps struct {
	Registry     Registry
	Promoter     Promoter
	Sessions     SessionCounter
	Activity     ActivityReader
	Metrics      *transfer.Metrics
	JWT          *jwt.Service
	PasswordHash string
}

func NewService(d Deps) *Service {
	return &Service{
		registry:     d.Registry,
		promoter:     d.Promoter,
		sessions:     d.Sessions,
		activity:     d.Activity,
		metrics:      d.Metrics,
		jwtService:   d.JWT,
		passwordHash: d.PasswordHash,
	}
}

// Login exchanges the operator password for a bearer token.
func (s *Service) Login(password string) (string, error) {
	if s.passwordHash == "" {
		return "", ErrLoginDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return "", ErrInvalidPassword
	}
	return s.jwtService.GenerateToken(jwt.RoleOperator, jwt.RoleOperator)
}

// ShareFile offers a local file for download.
func (s *Service) ShareFile(path string) (registry.FileEntry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return registry.FileEntry{}, ErrEmptyPath
	}
	id, err := s.registry.Register(filepath.Clean(path), registry.KindShared)
	if err != nil {
		return registry.FileEntry{}, err
	}
	return s.registry.Get(id)
}

// RemoveShared withdraws a shared entry. The file on disk is kept.
func (s *Service) RemoveShared(id string) error {
	return s.removeKind(id, registry.KindShared)
}

// RemoveUpload drops an uploaded entry and deletes its bytes.
func (s *Service) RemoveUpload(id string) error {
	return s.removeKind(id, registry.KindUploaded)
}

func (s *Service) removeKind(id string, kind registry.Kind) error {
	// a stale entry (file gone) must still be removable
	if _, err := s.registry.GetKind(id, kind); err != nil && !errors.Is(err, registry.ErrFileMissing) {
		return err
	}
	return s.registry.Remove(id)
}

// PromoteUpload shares an uploaded file under a new id.
func (s *Service) PromoteUpload(uploadID string) (registry.FileEntry, error) {
	sharedID, err := s.promoter.Promote(uploadID)
	if err != nil {
		return registry.FileEntry{}, err
	}
	return s.registry.Get(sharedID)
}

// Activity returns entries after the first n.
func (s *Service) Activity(since int) []activity.Entry {
	return s.activity.Since(since)
}

func (s *Service) Stats() StatsResponse {
	counts := s.sessions.Counts()
	return StatsResponse{
		SharedFiles:   s.registry.Len(registry.KindShared),
		UploadedFiles: s.registry.Len(registry.KindUploaded),
		ActivityLines: s.activity.Len(),
		Sessions: SessionStats{
			Pending:     counts[session.StatusPending],
			Downloading: counts[session.StatusDownloading],
			Completed:   counts[session.StatusCompleted],
			Failed:      counts[session.StatusFailed],
		},
		Transfers: s.metrics.Stats(),
	}
}

// Persist forces a registry snapshot write.
func (s *Service) Persist(ctx context.Context) error {
	if err := s.registry.Persist(ctx); err != nil {
		log.Printf("admin_persist_failed error=%v", err)
		return fmt.Errorf("persist registry: %w", err)
	}
	return nil
}
