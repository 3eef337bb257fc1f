package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/getkayan/kayan-notes/domain"
	"github.com/getkayan/kayan-notes/identity"
	"github.com/getkayan/kayan-notes/note"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Repository implements domain.Storage on top of gorm.
type Repository struct {
	db *gorm.DB
}

var _ domain.Storage = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func init() {
	Register("sqlite", sqlite.Open)
	Register("postgres", postgres.Open)
	Register("mysql", mysql.Open)
}

// DB exposes the underlying handle.
func (r *Repository) DB() *gorm.DB { return r.db }

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&identity.User{},
		&note.Note{},
		&note.PublicLink{},
	)
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrRecordNotFound
	}
	return err
}

// ---- Users ----

func (r *Repository) CreateUser(ctx context.Context, u *identity.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *Repository) GetUser(ctx context.Context, id string) (*identity.User, error) {
	var u identity.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	var u identity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *Repository) FindUserByRole(ctx context.Context, role identity.Role) (*identity.User, error) {
	var u identity.User
	if err := r.db.WithContext(ctx).Where("role = ?", role).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *Repository) ListUsers(ctx context.Context, page domain.Page) ([]identity.User, int64, error) {
	var (
		users []identity.User
		total int64
	)
	q := r.db.WithContext(ctx).Model(&identity.User{}).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&users).Error
	return users, total, err
}

func (r *Repository) UpdateUserPassword(ctx context.Context, id, hash string) error {
	res := r.db.WithContext(ctx).Model(&identity.User{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&note.Note{}).Select("id").Where("owner_id = ?", id)
		if err := tx.Where("note_id IN (?) OR created_by_id = ?", owned, id).Delete(&note.PublicLink{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", id).Delete(&note.Note{}).Error; err != nil {
			return err
		}
		return tx.Delete(&identity.User{}, "id = ?", id).Error
	})
}

// ---- Notes ----

func (r *Repository) CreateNote(ctx context.Context, n *note.Note) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *Repository) GetNote(ctx context.Context, id string) (*note.Note, error) {
	var n note.Note
	if err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

func (r *Repository) SaveNote(ctx context.Context, n *note.Note) error {
	return r.db.WithContext(ctx).Omit("PublicLinks").Save(n).Error
}

func (r *Repository) DeleteNote(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("note_id = ?", id).Delete(&note.PublicLink{}).Error; err != nil {
			return err
		}
		return tx.Delete(&note.Note{}, "id = ?", id).Error
	})
}

func (r *Repository) SearchNotes(ctx context.Context, q domain.NoteQuery) ([]note.Note, int64, error) {
	var (
		notes []note.Note
		total int64
	)
	tx := r.db.WithContext(ctx).Model(&note.Note{}).Where("owner_id = ?", q.OwnerID)
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		tx = tx.Where("(LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?))", pattern, pattern)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	tx = tx.Session(&gorm.Session{})
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := tx.Preload("PublicLinks").
		Order("updated_at DESC").
		Offset(q.Offset()).
		Limit(q.Limit).
		Find(&notes).Error
	return notes, total, err
}

func (r *Repository) RecentNotes(ctx context.Context, ownerID string, limit int) ([]note.Note, error) {
	var notes []note.Note
	err := r.db.WithContext(ctx).
		Preload("PublicLinks").
		Where("owner_id = ? AND status = ?", ownerID, note.StatusActive).
		Order("updated_at DESC").
		Limit(limit).
		Find(&notes).Error
	return notes, err
}

func (r *Repository) CountNotes(ctx context.Context, ownerID string) (domain.NoteCounts, error) {
	var counts domain.NoteCounts
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&note.Note{}).Where("owner_id = ?", ownerID)
	}
	if err := base().Count(&counts.Total).Error; err != nil {
		return counts, err
	}
	if err := base().Where("status = ?", note.StatusActive).Count(&counts.Active).Error; err != nil {
		return counts, err
	}
	if err := base().Where("status = ?", note.StatusDisabled).Count(&counts.Disabled).Error; err != nil {
		return counts, err
	}
	return counts, nil
}

func (r *Repository) NotesWithLinks(ctx context.Context, ownerID string) ([]note.Note, error) {
	var notes []note.Note
	err := r.db.WithContext(ctx).Preload("PublicLinks").Where("owner_id = ?", ownerID).Find(&notes).Error
	return notes, err
}

func (r *Repository) ListActiveNotes(ctx context.Context, page domain.Page) ([]note.Note, int64, error) {
	var (
		notes []note.Note
		total int64
	)
	tx := r.db.WithContext(ctx).Model(&note.Note{}).Where("status = ?", note.StatusActive).Session(&gorm.Session{})
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := tx.Preload("PublicLinks").
		Order("updated_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&notes).Error
	return notes, total, err
}

// ---- Public links ----

func (r *Repository) CreateLink(ctx context.Context, l *note.PublicLink) error {
	return r.db.WithContext(ctx).Omit("Note").Create(l).Error
}

func (r *Repository) GetLinkByPublicID(ctx context.Context, publicID string) (*note.PublicLink, error) {
	var l note.PublicLink
	if err := r.db.WithContext(ctx).Preload("Note").Where("public_id = ?", publicID).First(&l).Error; err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (r *Repository) SaveLink(ctx context.Context, l *note.PublicLink) error {
	return r.db.WithContext(ctx).Omit("Note").Save(l).Error
}

func (r *Repository) DeleteLink(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&note.PublicLink{}, "id = ?", id).Error
}

func (r *Repository) ListLinksByCreator(ctx context.Context, userID string, page domain.Page) ([]note.PublicLink, int64, error) {
	var (
		links []note.PublicLink
		total int64
	)
	tx := r.db.WithContext(ctx).Model(&note.PublicLink{}).Where("created_by_id = ?", userID).Session(&gorm.Session{})
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := tx.Preload("Note").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&links).Error
	return links, total, err
}

func (r *Repository) AllLinksByCreator(ctx context.Context, userID string) ([]note.PublicLink, error) {
	var links []note.PublicLink
	err := r.db.WithContext(ctx).Preload("Note").Where("created_by_id = ?", userID).Find(&links).Error
	return links, err
}

func (r *Repository) IncrementLinkViews(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&note.PublicLink{}).Where("id = ?", id).UpdateColumns(map[string]any{
		"view_count":       gorm.Expr("view_count + ?", 1),
		"last_accessed_at": time.Now(),
	}).Error
}
