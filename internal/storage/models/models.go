package models

import (
	"time"

	"gorm.io/datatypes"
)

// ExtractionRecord 一次简历结构化抽取的记录
type ExtractionRecord struct {
	RecordID          string         `gorm:"type:char(36);primaryKey"`
	Source            string         `gorm:"type:varchar(20);not null;index"` // upload | autofill | cli
	OriginalFilename  string         `gorm:"type:varchar(255)"`
	OriginalObjectKey string         `gorm:"type:varchar(512)"`
	TextMD5           string         `gorm:"type:char(32);not null;index:idx_extraction_text_md5"`
	Pipeline          string         `gorm:"type:varchar(50);not null"`
	CandidateName     string         `gorm:"type:varchar(255)"`
	CandidateEmail    string         `gorm:"type:varchar(255);index"`
	ExperienceCount   int            `gorm:"default:0"`
	EducationCount    int            `gorm:"default:0"`
	SkillCount        int            `gorm:"default:0"`
	ProfileJSON       datatypes.JSON `gorm:"type:json"`
	CacheHit          bool           `gorm:"default:false"`
	CreatedAt         time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (ExtractionRecord) TableName() string {
	return "extraction_records"
}

// SearchRecord 职位搜索历史
type SearchRecord struct {
	SearchID     string         `gorm:"type:char(36);primaryKey"`
	Kind         string         `gorm:"type:varchar(20);not null;index"` // keyword | profile
	Keyword      string         `gorm:"type:varchar(255)"`
	Location     string         `gorm:"type:varchar(255)"`
	SearchTerms  datatypes.JSON `gorm:"type:json"`
	RequestHash  string         `gorm:"type:char(32);index"`
	ResultCount  int            `gorm:"default:0"`
	TopScore     float64        `gorm:"type:decimal(5,2);default:0"`
	CacheHit     bool           `gorm:"default:false"`
	DurationMS   int64          `gorm:"default:0"`
	ErrorMessage string         `gorm:"type:text"`
	CreatedAt    time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index"`
}

func (SearchRecord) TableName() string {
	return "search_records"
}
