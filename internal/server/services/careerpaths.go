package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/dmitrijs2005/studynest/internal/keylock"
	"github.com/dmitrijs2005/studynest/internal/logging"
	"github.com/dmitrijs2005/studynest/internal/server/config"
	"github.com/dmitrijs2005/studynest/internal/server/models"
	"github.com/dmitrijs2005/studynest/internal/server/repositories/repomanager"
)

// CareerPathInput is a career path PDF as submitted by a teacher.
// PdfData is base64.
type CareerPathInput struct {
	CareerPath  string
	PdfData     string
	ContentType string
}

type CareerPathService struct {
	repomanager    repomanager.RepositoryManager
	locks          *keylock.Locker
	log            logging.Logger
	maxEncodedSize int64
}

func NewCareerPathService(m repomanager.RepositoryManager, cfg *config.Config, locks *keylock.Locker, log logging.Logger) *CareerPathService {
	return &CareerPathService{
		repomanager:    m,
		locks:          locks,
		log:            log.With("module", "careerpaths"),
		maxEncodedSize: cfg.MaxEncodedSize,
	}
}

// Create stores a career path. Labels are unique.
func (s *CareerPathService) Create(ctx context.Context, requester *models.User, in CareerPathInput) (*models.CareerPath, error) {
	if err := requireRole(requester, common.RoleTeacher); err != nil {
		return nil, err
	}
	in.CareerPath = strings.TrimSpace(in.CareerPath)
	in.ContentType = strings.TrimSpace(in.ContentType)
	switch {
	case in.CareerPath == "":
		return nil, fmt.Errorf("%w: careerPath is required", common.ErrorInvalidInput)
	case in.PdfData == "":
		return nil, fmt.Errorf("%w: pdfData is required", common.ErrorInvalidInput)
	case in.ContentType == "":
		return nil, fmt.Errorf("%w: contentType is required", common.ErrorInvalidInput)
	}
	if _, err := DecodePayload(in.PdfData, s.maxEncodedSize); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock("career:" + in.CareerPath)
	defer unlock()

	repo := s.repomanager.CareerPaths()
	if _, err := repo.GetByLabel(ctx, in.CareerPath); err == nil {
		return nil, fmt.Errorf("%w: career path %q", common.ErrorAlreadyExists, in.CareerPath)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error looking up career path: %w", err)
	}

	cp := &models.CareerPath{
		CareerPath:  in.CareerPath,
		PdfData:     in.PdfData,
		ContentType: in.ContentType,
	}
	if requester != nil {
		cp.UploadedBy = requester.UserName
	}
	if err := repo.Create(ctx, cp); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: career path %q", common.ErrorAlreadyExists, in.CareerPath)
		}
		return nil, fmt.Errorf("error creating career path: %w", err)
	}

	s.log.Info(ctx, "career path created", "careerPath", cp.CareerPath, "by", cp.UploadedBy)
	return cp, nil
}

func (s *CareerPathService) List(ctx context.Context) ([]*models.CareerPath, error) {
	cps, err := s.repomanager.CareerPaths().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing career paths: %w", err)
	}
	return cps, nil
}
