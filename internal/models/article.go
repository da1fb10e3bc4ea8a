package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Article is the single content type managed by the store. The identifier is
// stable: upstream sources that do not supply one get a hash of the origin URL.
type Article struct {
	ID          string         `gorm:"primaryKey;size:64" json:"id"`
	Title       string         `gorm:"type:text" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	URL         string         `gorm:"type:text" json:"url"`
	Author      string         `gorm:"type:varchar(255)" json:"author"`
	ImageURL    string         `gorm:"type:text" json:"image_url"`
	PublishedAt time.Time      `gorm:"index" json:"published_at"`
	Categories  datatypes.JSON `json:"categories"`

	SavedOffline bool       `json:"saved_offline"`
	Read         bool       `json:"read"`
	Bookmarked   bool       `json:"bookmarked"`
	SavedAt      time.Time  `json:"saved_at"`
	ReadAt       *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArticleID derives a stable identifier from the article origin URL.
func ArticleID(url string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(url)))
	return hex.EncodeToString(sum[:16])
}

// CategoryList decodes the stored category tags, preserving order.
func (a Article) CategoryList() []string {
	if len(a.Categories) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(a.Categories, &out); err != nil {
		return nil
	}
	return out
}

// SetCategories encodes the ordered tag list onto the article.
func (a *Article) SetCategories(tags []string) {
	if len(tags) == 0 {
		a.Categories = nil
		return
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return
	}
	a.Categories = datatypes.JSON(data)
}

// HasCategory reports whether the article carries the given tag.
func (a Article) HasCategory(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return false
	}
	for _, c := range a.CategoryList() {
		if strings.ToLower(c) == tag {
			return true
		}
	}
	return false
}
