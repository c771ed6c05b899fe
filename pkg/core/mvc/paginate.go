package mvc

import (
	"gorm.io/gorm"
)

const maxPageSize = 500

type Page struct {
	PageNum int    `json:"pageNum" query:"pageNum"`
	Size    int    `json:"size" query:"size"`
	Sort    string `json:"sort" query:"sort"`
}

// Normalize 页码从 1 开始，页大小默认 10，上限 500
func (page *Page) Normalize() (offset, size int) {
	pageNum := page.PageNum
	if pageNum <= 0 {
		pageNum = 1
	}
	size = page.Size
	if size <= 0 {
		size = 10
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return (pageNum - 1) * size, size
}

func Paginate(page *Page) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		offset, size := page.Normalize()
		return db.Offset(offset).Limit(size)
	}
}
