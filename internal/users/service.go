package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trackadmission/go-services/internal/models"
	"github.com/trackadmission/go-services/pkg/middleware"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrMissingClaims = errors.New("token carries no subject")
	ErrInvalidPermit = errors.New("invalid permit status")
	ErrInvalidID     = errors.New("invalid writer id")
	ErrInvalidSlug   = errors.New("author slug must be first-last")
	ErrForbidden     = errors.New("not allowed to update this writer")
)

// WriterView is the public profile of a writer.
type WriterView struct {
	ID        string      `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	FullName  string      `json:"fullName"`
	Role      models.Role `json:"role"`
	models.Profile
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func viewOf(u *models.User) *WriterView {
	return &WriterView{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Role:      u.Role,
		Profile:   u.Profile,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
	now  func() time.Time
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r, now: time.Now}
}

// UpsertFromClaims records a login for the subject in claims. Holders of the
// admin role become admins; everyone else is a writer.
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	sub := middleware.ClaimString(claims, "sub")
	if sub == "" {
		return nil, ErrMissingClaims
	}
	first := middleware.ClaimString(claims, "given_name")
	last := middleware.ClaimString(claims, "family_name")
	if first == "" && last == "" {
		parts := strings.Fields(middleware.ClaimString(claims, "name"))
		if len(parts) > 0 {
			first = parts[0]
		}
		if len(parts) > 1 {
			last = strings.Join(parts[1:], " ")
		}
	}
	role := models.RoleWriter
	if middleware.HasRole(claims, string(models.RoleAdmin)) {
		role = models.RoleAdmin
	}
	now := s.now().UTC()
	u := &models.User{
		Sub:       sub,
		Email:     strings.ToLower(middleware.ClaimString(claims, "email")),
		FirstName: first,
		LastName:  last,
		Role:      role,
		LastLogin: &now,
	}
	return s.repo.UpsertBySub(ctx, u)
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return s.repo.GetBySub(ctx, sub)
}

// Writers lists writer accounts. sortField is one of name, permit, email,
// lastLogin or createdAt (the default).
func (s *Service) Writers(ctx context.Context, sortField string, asc bool) ([]models.User, error) {
	return s.repo.ListByRole(ctx, models.RoleWriter, sortField, asc)
}

func (s *Service) SetPermit(ctx context.Context, id string, p models.Permit) (*models.User, error) {
	if !p.Valid() {
		return nil, ErrInvalidPermit
	}
	return s.repo.SetPermit(ctx, id, p)
}

// WriterStats counts writers that logged in since local midnight, before it, or never.
func (s *Service) WriterStats(ctx context.Context) (Stats, error) {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.repo.CountLogins(ctx, models.RoleWriter, midnight)
}

// Writer returns the public profile for id, which must be an ObjectID hex string.
func (s *Service) Writer(ctx context.Context, id string) (*WriterView, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, ErrInvalidID
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return viewOf(u), nil
}

// UpdateProfile replaces the profile of writer id. Callers may edit their own
// account; admins may edit any. Names and email stay owned by the identity provider.
func (s *Service) UpdateProfile(ctx context.Context, claims map[string]interface{}, id string, p models.Profile) (*WriterView, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, ErrInvalidID
	}
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !middleware.HasRole(claims, string(models.RoleAdmin)) {
		sub := middleware.ClaimString(claims, "sub")
		if sub == "" || sub != target.Sub {
			return nil, ErrForbidden
		}
	}
	p.Description = strings.TrimSpace(p.Description)
	p.Designation = strings.TrimSpace(p.Designation)
	p.ProfileImage = strings.TrimSpace(p.ProfileImage)
	u, err := s.repo.UpdateProfile(ctx, id, p)
	if err != nil {
		return nil, err
	}
	return viewOf(u), nil
}

// Author resolves a "first-last" slug to an allowed writer. Only the first
// two hyphen-separated parts are matched.
func (s *Service) Author(ctx context.Context, slug string) (*models.User, error) {
	parts := strings.Split(slug, "-")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, ErrInvalidSlug
	}
	return s.repo.FindWriter(ctx, parts[0], parts[1])
}
