package users

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trackadmission/go-services/internal/database"
	"github.com/trackadmission/go-services/internal/models"
)

// UserRepository defines persistence operations for users
type UserRepository interface {
	// UpsertBySub refreshes profile fields and lastLogin. Permit and createdAt are only set on insert.
	UpsertBySub(ctx context.Context, u *models.User) (*models.User, error)
	GetBySub(ctx context.Context, sub string) (*models.User, error)
	ListByRole(ctx context.Context, role models.Role, sortField string, asc bool) ([]models.User, error)
	SetPermit(ctx context.Context, id string, p models.Permit) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, p models.Profile) (*models.User, error)
	// FindWriter returns an allowed writer whose first and last names contain
	// first and last, ignoring case.
	FindWriter(ctx context.Context, first, last string) (*models.User, error)
	CountLogins(ctx context.Context, role models.Role, since time.Time) (Stats, error)
}

// Stats summarizes writer activity relative to a cut-off.
type Stats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
	Never    int64 `json:"never"`
}

// sortKeys maps the listing's sort parameter onto stored fields.
func sortKeys(field string) []string {
	switch field {
	case "name":
		return []string{"firstName", "lastName"}
	case "permit", "email", "lastLogin":
		return []string{field}
	default:
		return []string{"createdAt"}
	}
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *database.Collection
}

// NewMongoUserRepository creates a new repository for the given collection
func NewMongoUserRepository(col *database.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col}
}

func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	return r.col.EnsureIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sub", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "lastLogin", Value: -1}}},
	})
}

func (r *MongoUserRepository) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	if u.LastLogin == nil {
		u.LastLogin = &now
	}
	filter := bson.M{"sub": u.Sub}
	update := bson.M{
		"$set": bson.M{
			"email":     u.Email,
			"firstName": u.FirstName,
			"lastName":  u.LastName,
			"role":      u.Role,
			"lastLogin": u.LastLogin,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID(),
			"permit":    models.PermitAllowed,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated models.User
	err := r.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		return col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *MongoUserRepository) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	var u models.User
	err := r.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		return col.FindOne(ctx, bson.M{"sub": sub}).Decode(&u)
	})
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) ListByRole(ctx context.Context, role models.Role, sortField string, asc bool) ([]models.User, error) {
	dir := -1
	if asc {
		dir = 1
	}
	var sortDoc bson.D
	for _, k := range sortKeys(sortField) {
		sortDoc = append(sortDoc, bson.E{Key: k, Value: dir})
	}
	out := []models.User{}
	err := r.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		cur, err := col.Find(ctx, bson.M{"role": role}, options.Find().SetSort(sortDoc))
		if err != nil {
			return err
		}
		list := []models.User{}
		if err := cur.All(ctx, &list); err != nil {
			return err
		}
		out = list
		return nil
	})
	return out, err
}

func (r *MongoUserRepository) SetPermit(ctx context.Context, id string, p models.Permit) (*models.User, error) {
	var u models.User
	err := r.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		update := bson.M{"$set": bson.M{"permit": p, "updatedAt": time.Now().UTC()}}
		return col.FindOneAndUpdate(ctx, database.IDFilter(id), update, opts).Decode(&u)
	})
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	err := r.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		return col.FindOne(ctx, filter).Decode(&u)
	})
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, database.IDFilter(id))
}

func (r *MongoUserRepository) FindWriter(ctx context.Context, first, last string) (*models.User, error) {
	return r.findOne(ctx, bson.M{
		"role":      models.RoleWriter,
		"permit":    models.PermitAllowed,
		"firstName": primitive.Regex{Pattern: regexp.QuoteMeta(first), Options: "i"},
		"lastName":  primitive.Regex{Pattern: regexp.QuoteMeta(last), Options: "i"},
	})
}

func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id string, p models.Profile) (*models.User, error) {
	var u models.User
	err := r.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		update := bson.M{"$set": bson.M{
			"description":  p.Description,
			"designation":  p.Designation,
			"profileImage": p.ProfileImage,
			"socials":      p.Socials,
			"updatedAt":    time.Now().UTC(),
		}}
		return col.FindOneAndUpdate(ctx, database.IDFilter(id), update, opts).Decode(&u)
	})
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) CountLogins(ctx context.Context, role models.Role, since time.Time) (Stats, error) {
	var s Stats
	err := r.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		counts := []struct {
			dst    *int64
			filter bson.M
		}{
			{&s.Total, bson.M{"role": role}},
			{&s.Active, bson.M{"role": role, "lastLogin": bson.M{"$gte": since}}},
			{&s.Inactive, bson.M{"role": role, "lastLogin": bson.M{"$lt": since, "$ne": nil}}},
			{&s.Never, bson.M{"role": role, "lastLogin": nil}},
		}
		for _, c := range counts {
			n, err := col.CountDocuments(ctx, c.filter)
			if err != nil {
				return err
			}
			*c.dst = n
		}
		return nil
	})
	return s, err
}

// MemoryUserRepository keeps users in a map keyed by subject.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	bySub map[string]*models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{bySub: map[string]*models.User{}}
}

func (r *MemoryUserRepository) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if u.LastLogin == nil {
		u.LastLogin = &now
	}
	cur, ok := r.bySub[u.Sub]
	if !ok {
		cur = &models.User{ID: primitive.NewObjectID().Hex(), Sub: u.Sub, Permit: models.PermitAllowed, CreatedAt: now}
		r.bySub[u.Sub] = cur
	}
	cur.Email, cur.FirstName, cur.LastName, cur.Role = u.Email, u.FirstName, u.LastName, u.Role
	login := *u.LastLogin
	cur.LastLogin = &login
	cur.UpdatedAt = now
	out := *cur
	return &out, nil
}

func (r *MemoryUserRepository) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.bySub[sub]; ok {
		out := *u
		return &out, nil
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) ListByRole(ctx context.Context, role models.Role, sortField string, asc bool) ([]models.User, error) {
	r.mu.RLock()
	out := []models.User{}
	for _, u := range r.bySub {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	r.mu.RUnlock()
	keys := sortKeys(sortField)
	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range keys {
			c := compareField(out[i], out[j], k)
			if c == 0 {
				continue
			}
			if asc {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	return out, nil
}

func compareField(a, b models.User, field string) int {
	switch field {
	case "firstName":
		return strings.Compare(a.FirstName, b.FirstName)
	case "lastName":
		return strings.Compare(a.LastName, b.LastName)
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "permit":
		return strings.Compare(string(a.Permit), string(b.Permit))
	case "lastLogin":
		return compareTime(a.LastLogin, b.LastLogin)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func (r *MemoryUserRepository) SetPermit(ctx context.Context, id string, p models.Permit) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.bySub {
		if u.ID == id {
			u.Permit = p
			u.UpdatedAt = time.Now().UTC()
			out := *u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) byID(id string) *models.User {
	for _, u := range r.bySub {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u := r.byID(id); u != nil {
		out := *u
		return &out, nil
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) UpdateProfile(ctx context.Context, id string, p models.Profile) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.byID(id)
	if u == nil {
		return nil, ErrNotFound
	}
	u.Profile = p
	u.UpdatedAt = time.Now().UTC()
	out := *u
	return &out, nil
}

func (r *MemoryUserRepository) FindWriter(ctx context.Context, first, last string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	first, last = strings.ToLower(first), strings.ToLower(last)
	var match *models.User
	for _, u := range r.bySub {
		if u.Role != models.RoleWriter || u.Permit != models.PermitAllowed {
			continue
		}
		if !strings.Contains(strings.ToLower(u.FirstName), first) || !strings.Contains(strings.ToLower(u.LastName), last) {
			continue
		}
		// map order is random; take the oldest account like an _id-ordered scan
		if match == nil || u.CreatedAt.Before(match.CreatedAt) {
			match = u
		}
	}
	if match == nil {
		return nil, ErrNotFound
	}
	out := *match
	return &out, nil
}

func (r *MemoryUserRepository) CountLogins(ctx context.Context, role models.Role, since time.Time) (Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var s Stats
	for _, u := range r.bySub {
		if u.Role != role {
			continue
		}
		s.Total++
		switch {
		case u.LastLogin == nil:
			s.Never++
		case u.LastLogin.Before(since):
			s.Inactive++
		default:
			s.Active++
		}
	}
	return s, nil
}
