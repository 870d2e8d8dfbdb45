package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bandroom/internal/common"
	"bandroom/internal/domain/model"
	"bandroom/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type BandService struct {
	bandRepo   repository.BandRepository
	memberRepo repository.MembershipRepository
	userRepo   repository.UserRepository
	db         *sql.DB
}

func NewBandService(
	bandRepo repository.BandRepository,
	memberRepo repository.MembershipRepository,
	userRepo repository.UserRepository,
	db *sql.DB,
) *BandService {
	return &BandService{bandRepo: bandRepo, memberRepo: memberRepo, userRepo: userRepo, db: db}
}

type CreateBandRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

type AddMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=member admin"`
}

type BandDetails struct {
	Band    *model.Band        `json:"band"`
	Members []model.BandMember `json:"members"`
}

// CreateBand inserts the band and the creator's admin edge in one
// transaction; a band without an admin must not exist.
func (s *BandService) CreateBand(ctx context.Context, userID string, req CreateBandRequest) (*model.Band, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	band := &model.Band{
		ID:   uuid.NewString(),
		Name: req.Name,
		Slug: slug.Make(req.Name),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := s.bandRepo.Create(ctx, tx, band); err != nil {
		return nil, err
	}

	creator := &model.BandMember{
		BandID: band.ID,
		UserID: userID,
		Role:   model.RoleAdmin,
	}
	if err := s.memberRepo.Create(ctx, tx, creator); err != nil {
		return nil, common.Errorf("failed to add creator as admin: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}
	return band, nil
}

func (s *BandService) ListBands(ctx context.Context, userID string) ([]model.Band, error) {
	bands, err := s.bandRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if bands == nil {
		bands = []model.Band{}
	}
	return bands, nil
}

func (s *BandService) GetBand(ctx context.Context, bandID string) (*BandDetails, error) {
	band, err := s.bandRepo.FindByID(ctx, bandID)
	if err != nil {
		return nil, err
	}
	members, err := s.memberRepo.ListByBand(ctx, bandID)
	if err != nil {
		return nil, err
	}
	return &BandDetails{Band: band, Members: members}, nil
}

// AddMember attaches an existing user to the band by email. The caller is
// already known to be a band admin; this never creates user accounts.
func (s *BandService) AddMember(ctx context.Context, bandID string, req AddMemberRequest) (*model.BandMember, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("no user with that email: %w", common.ErrNotFound)
		}
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleMember
	}

	member := &model.BandMember{
		BandID: bandID,
		UserID: user.ID,
		Role:   role,
	}
	if err := s.memberRepo.Create(ctx, nil, member); err != nil {
		return nil, err
	}
	member.Email = user.Email
	member.FirstName = user.FirstName
	member.LastName = user.LastName
	return member, nil
}

func (s *BandService) RemoveMember(ctx context.Context, bandID, userID string) error {
	return s.memberRepo.Delete(ctx, bandID, userID)
}
