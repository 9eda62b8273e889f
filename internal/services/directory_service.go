package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/example/jinsharnam/internal/models"
)

// DirectoryService lists public directory members.
type DirectoryService struct {
	db *gorm.DB
}

// NewDirectoryService constructs a DirectoryService.
func NewDirectoryService(db *gorm.DB) *DirectoryService {
	return &DirectoryService{db: db}
}

// Search matches q case-insensitively against name, email, phone and organization.
// An empty q lists everyone.
func (s *DirectoryService) Search(ctx context.Context, q string, limit, offset int) ([]models.DirectoryMember, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.DirectoryMember{})

	if term := strings.ToLower(strings.TrimSpace(q)); term != "" {
		like := "%" + escapeLike(term) + "%"
		query = query.Where(
			"LOWER(full_name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\' OR LOWER(phone) LIKE ? ESCAPE '\\' OR LOWER(organization) LIKE ? ESCAPE '\\'",
			like, like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var members []models.DirectoryMember
	if err := query.Order("full_name asc").Limit(limit).Offset(offset).Find(&members).Error; err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
