package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/dmitrijs2005/studynest/internal/keylock"
	"github.com/dmitrijs2005/studynest/internal/logging"
	"github.com/dmitrijs2005/studynest/internal/server/blobstore"
	"github.com/dmitrijs2005/studynest/internal/server/config"
	"github.com/dmitrijs2005/studynest/internal/server/models"
	"github.com/dmitrijs2005/studynest/internal/server/repositories/repomanager"
)

const presignTTL = 15 * time.Minute

// UploadInput is one file to attach to a page.
type UploadInput struct {
	PageName    string
	Name        string
	Data        []byte
	ContentType string
}

// FileDescriptor is the listing view of a file. Exactly one of FileData
// (base64) and URL is set. Storage keys are never exposed.
type FileDescriptor struct {
	Name        string
	ContentType string
	Size        int64
	UploadedAt  time.Time
	FileData    string
	URL         string
}

// AttachmentService manages pages and their files. Every record it writes
// references a blob that exists, and every blob it leaves behind is
// referenced by a record, apart from the documented crash windows that the
// Reconciler sweeps up.
type AttachmentService struct {
	repomanager    repomanager.RepositoryManager
	store          blobstore.Store
	inline         *blobstore.InlineStore
	locks          *keylock.Locker
	log            logging.Logger
	maxEncodedSize int64
}

func NewAttachmentService(m repomanager.RepositoryManager, store blobstore.Store, cfg *config.Config, locks *keylock.Locker, log logging.Logger) *AttachmentService {
	return &AttachmentService{
		repomanager:    m,
		store:          store,
		inline:         blobstore.NewInlineStore(),
		locks:          locks,
		log:            log.With("module", "attachments"),
		maxEncodedSize: cfg.MaxEncodedSize,
	}
}

// MaxEncodedSize is the ceiling applied to base64-encoded payloads.
func (s *AttachmentService) MaxEncodedSize() int64 {
	return s.maxEncodedSize
}

func (s *AttachmentService) CreatePage(ctx context.Context, requester *models.User, name string, semester int) (*models.Page, error) {
	if err := requireRole(requester, common.RoleTeacher); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: page name is required", common.ErrorInvalidInput)
	}
	if semester <= 0 {
		return nil, fmt.Errorf("%w: semester must be a positive number", common.ErrorInvalidInput)
	}

	unlock := s.locks.Lock(pageLockKey(name))
	defer unlock()

	page := &models.Page{Name: name, Semester: semester}
	if err := s.repomanager.Pages().Create(ctx, page); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: page %q", common.ErrorAlreadyExists, name)
		}
		return nil, fmt.Errorf("error creating page: %w", err)
	}

	s.log.Info(ctx, "page created", "page", name, "semester", semester)
	return page, nil
}

func (s *AttachmentService) ListPages(ctx context.Context) ([]*models.Page, error) {
	pages, err := s.repomanager.Pages().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing pages: %w", err)
	}
	return pages, nil
}

// DeletePage removes the page, then reaps the blobs of its files, then drops
// the file records in bulk. Blob failures are logged and skipped. A crash
// after the page delete leaves orphan records for the Reconciler.
func (s *AttachmentService) DeletePage(ctx context.Context, requester *models.User, name string) error {
	if err := requireRole(requester, common.RoleTeacher); err != nil {
		return err
	}
	if err := checkPageName(name); err != nil {
		return err
	}

	unlock := s.locks.Lock(pageLockKey(name))
	defer unlock()

	if _, err := s.repomanager.Pages().DeleteByName(ctx, name); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: page %q", common.ErrorNotFound, name)
		}
		return fmt.Errorf("error deleting page: %w", err)
	}

	n, err := s.purgeFiles(ctx, name)
	if err != nil {
		s.log.Error(ctx, "page deleted but its files were not", "page", name, "error", err)
		return err
	}

	s.log.Info(ctx, "page deleted", "page", name, "files", n)
	return nil
}

// UploadFile stores the payload and records it. Requests for the same page
// are serialized; the unique constraint on (page, name) covers writers in
// other processes. If the record cannot be written the blob is removed again.
func (s *AttachmentService) UploadFile(ctx context.Context, requester *models.User, in UploadInput) (*models.File, error) {
	if err := requireRole(requester, common.RoleTeacher); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.ContentType = strings.TrimSpace(in.ContentType)
	if err := checkPageName(in.PageName); err != nil {
		return nil, err
	}
	switch {
	case in.Name == "":
		return nil, fmt.Errorf("%w: file name is required", common.ErrorInvalidInput)
	case len(in.Data) == 0:
		return nil, fmt.Errorf("%w: file data is required", common.ErrorInvalidInput)
	case in.ContentType == "":
		return nil, fmt.Errorf("%w: content type is required", common.ErrorInvalidInput)
	}
	if err := checkEncodedSize(in.Data, s.maxEncodedSize); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(pageLockKey(in.PageName))
	defer unlock()

	if _, err := s.repomanager.Pages().GetByName(ctx, in.PageName); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: page %q", common.ErrorNotFound, in.PageName)
		}
		return nil, fmt.Errorf("error looking up page: %w", err)
	}

	files := s.repomanager.Files()
	if _, err := files.Get(ctx, in.PageName, in.Name); err == nil {
		return nil, fmt.Errorf("%w: file %q on page %q", common.ErrorAlreadyExists, in.Name, in.PageName)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error looking up file: %w", err)
	}

	h, err := s.store.Put(ctx, in.PageName, in.Name, in.Data, in.ContentType)
	if err != nil {
		return nil, fmt.Errorf("error storing blob: %w", err)
	}

	file := &models.File{
		PageName:    in.PageName,
		Name:        in.Name,
		Backend:     h.Backend,
		StorageKey:  h.Key,
		FileData:    h.Data,
		ContentType: in.ContentType,
		Size:        int64(len(in.Data)),
	}
	if err := files.Create(ctx, file); err != nil {
		s.discardBlob(ctx, *h, in.PageName, in.Name)
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: file %q on page %q", common.ErrorAlreadyExists, in.Name, in.PageName)
		}
		return nil, fmt.Errorf("error recording file: %w", err)
	}

	s.log.Info(ctx, "file uploaded", "page", in.PageName, "file", in.Name, "size", file.Size, "backend", file.Backend)
	return file, nil
}

// ListFiles describes every file of a page. Records whose blob has gone
// missing are logged and left out.
func (s *AttachmentService) ListFiles(ctx context.Context, pageName string) ([]FileDescriptor, error) {
	if err := s.requirePage(ctx, pageName); err != nil {
		return nil, err
	}

	records, err := s.repomanager.Files().ListByPage(ctx, pageName)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}

	result := make([]FileDescriptor, 0, len(records))
	for _, rec := range records {
		d, err := s.describe(ctx, rec)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				s.log.Warn(ctx, "file record without blob", "page", rec.PageName, "file", rec.Name, "backend", rec.Backend)
				continue
			}
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}

// GetFile returns the payload of one file and its content type. Files of a
// deleted page are not served even if their records are still around.
func (s *AttachmentService) GetFile(ctx context.Context, pageName, name string) ([]byte, string, error) {
	if err := s.requirePage(ctx, pageName); err != nil {
		return nil, "", err
	}

	rec, err := s.repomanager.Files().Get(ctx, pageName, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", fmt.Errorf("%w: file %q on page %q", common.ErrorNotFound, name, pageName)
		}
		return nil, "", fmt.Errorf("error looking up file: %w", err)
	}

	store, err := s.storeFor(rec.Backend)
	if err != nil {
		return nil, "", err
	}
	data, ct, err := store.Get(ctx, handleOf(rec))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(ctx, "file record without blob", "page", pageName, "file", name, "backend", rec.Backend)
			return nil, "", fmt.Errorf("%w: file %q on page %q", common.ErrorNotFound, name, pageName)
		}
		return nil, "", fmt.Errorf("error reading blob: %w", err)
	}
	return data, ct, nil
}

// DeleteFile drops the record first so the file disappears from listings
// even if the blob delete fails.
func (s *AttachmentService) DeleteFile(ctx context.Context, requester *models.User, pageName, name string) error {
	if err := requireRole(requester, common.RoleTeacher); err != nil {
		return err
	}
	if err := checkPageName(pageName); err != nil {
		return err
	}

	rec, err := s.repomanager.Files().Delete(ctx, pageName, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: file %q on page %q", common.ErrorNotFound, name, pageName)
		}
		return fmt.Errorf("error deleting file: %w", err)
	}

	s.discardBlob(ctx, handleOf(rec), pageName, name)
	s.log.Info(ctx, "file deleted", "page", pageName, "file", name)
	return nil
}

// --- helpers below ---

// purgeFiles reaps the blobs and records of pageName. Callers hold the page lock.
func (s *AttachmentService) purgeFiles(ctx context.Context, pageName string) (int64, error) {
	files := s.repomanager.Files()

	records, err := files.ListByPage(ctx, pageName)
	if err != nil {
		return 0, fmt.Errorf("error listing files: %w", err)
	}
	for _, rec := range records {
		s.discardBlob(ctx, handleOf(rec), rec.PageName, rec.Name)
	}

	n, err := files.DeleteByPage(ctx, pageName)
	if err != nil {
		return 0, fmt.Errorf("error deleting files: %w", err)
	}
	return n, nil
}

func (s *AttachmentService) describe(ctx context.Context, rec *models.File) (FileDescriptor, error) {
	d := FileDescriptor{
		Name:        rec.Name,
		ContentType: rec.ContentType,
		Size:        rec.Size,
		UploadedAt:  rec.UploadedAt,
	}

	if rec.Backend == s.inline.Kind() {
		d.FileData = rec.FileData
		return d, nil
	}

	store, err := s.storeFor(rec.Backend)
	if err != nil {
		return d, err
	}
	if p, ok := store.(blobstore.Presigner); ok {
		url, err := p.PresignGet(ctx, handleOf(rec), presignTTL)
		if err != nil {
			return d, fmt.Errorf("error presigning %q: %w", rec.Name, err)
		}
		d.URL = url
		return d, nil
	}

	data, _, err := store.Get(ctx, handleOf(rec))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return d, err
		}
		return d, fmt.Errorf("error reading blob: %w", err)
	}
	d.FileData = base64.StdEncoding.EncodeToString(data)
	return d, nil
}

// discardBlob deletes a blob on a best-effort basis. It survives request
// cancellation so a failed upload does not leak its blob.
func (s *AttachmentService) discardBlob(ctx context.Context, h blobstore.Handle, pageName, name string) {
	store, err := s.storeFor(h.Backend)
	if err != nil {
		s.log.Warn(ctx, "blob not deleted", "page", pageName, "file", name, "error", err)
		return
	}
	if err := store.Delete(context.WithoutCancel(ctx), h); err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.log.Warn(ctx, "blob not deleted", "page", pageName, "file", name, "backend", h.Backend, "error", err)
	}
}

// storeFor returns the store holding blobs of backend. Inline records stay
// readable after the configured backend changes.
func (s *AttachmentService) storeFor(backend string) (blobstore.Store, error) {
	switch backend {
	case s.store.Kind():
		return s.store, nil
	case s.inline.Kind():
		return s.inline, nil
	}
	return nil, fmt.Errorf("no blob store configured for backend %q", backend)
}

// requirePage returns NotFound unless pageName names an existing page.
func (s *AttachmentService) requirePage(ctx context.Context, pageName string) error {
	if err := checkPageName(pageName); err != nil {
		return err
	}
	if _, err := s.repomanager.Pages().GetByName(ctx, pageName); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: page %q", common.ErrorNotFound, pageName)
		}
		return fmt.Errorf("error looking up page: %w", err)
	}
	return nil
}

func checkPageName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: page name is required", common.ErrorInvalidInput)
	}
	return nil
}

func handleOf(rec *models.File) blobstore.Handle {
	return blobstore.Handle{
		Backend:     rec.Backend,
		Key:         rec.StorageKey,
		Data:        rec.FileData,
		ContentType: rec.ContentType,
	}
}

func pageLockKey(name string) string {
	return "page:" + name
}
