package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByReportID struct {
	ReportID uuid.UUID
}

func (s ByReportID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("report_id = ?", s.ReportID)
}

type BySubject struct {
	Subject string
}

func (s BySubject) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("subject = ?", s.Subject)
}
