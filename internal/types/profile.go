package types

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ContactInfo 联系方式，所有字段缺省为空字符串
type ContactInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	LinkedIn  string `json:"linkedin"`
	GitHub    string `json:"github"`
	Portfolio string `json:"portfolio"`
}

// ExperienceItem 工作经历
type ExperienceItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// EducationItem 教育经历
type EducationItem struct {
	ID          string `json:"id"`
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Field       string `json:"field"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// ProjectItem 项目经历
type ProjectItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// CertificationItem 证书
type CertificationItem struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date"`
}

// SkillItem 技能，序列化时始终是对象
type SkillItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level string `json:"level"`
}

// UnmarshalJSON 同时接受 {"name": ...} 对象和裸字符串
func (s *SkillItem) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*s = SkillItem{Name: strings.TrimSpace(name)}
		return nil
	}
	type plain SkillItem
	var item plain
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*s = SkillItem(item)
	return nil
}

// LanguageItem 语言能力
type LanguageItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Proficiency string `json:"proficiency"`
}

// StructuredProfile 结构化简历档案
// 列表字段永远不为 nil，条目 ID 是本次抽取内从 1 开始的位置编号
type StructuredProfile struct {
	ContactInfo    ContactInfo         `json:"contactInfo"`
	Experiences    []ExperienceItem    `json:"experiences"`
	Education      []EducationItem     `json:"education"`
	Skills         []SkillItem         `json:"skills"`
	Projects       []ProjectItem       `json:"projects"`
	Certifications []CertificationItem `json:"certifications"`
	Languages      []LanguageItem      `json:"languages"`
	RawText        string              `json:"rawText"`
}

// NewStructuredProfile 创建所有列表均为空切片的档案
func NewStructuredProfile(rawText string) *StructuredProfile {
	return &StructuredProfile{
		Experiences:    []ExperienceItem{},
		Education:      []EducationItem{},
		Skills:         []SkillItem{},
		Projects:       []ProjectItem{},
		Certifications: []CertificationItem{},
		Languages:      []LanguageItem{},
		RawText:        rawText,
	}
}

// Normalize 把 nil 列表替换为空切片，并为缺失 ID 的技能补上位置编号
// 从缓存或外部 JSON 反序列化得到的档案在返回前都要经过这里
func (p *StructuredProfile) Normalize() {
	if p.Experiences == nil {
		p.Experiences = []ExperienceItem{}
	}
	if p.Education == nil {
		p.Education = []EducationItem{}
	}
	if p.Skills == nil {
		p.Skills = []SkillItem{}
	}
	if p.Projects == nil {
		p.Projects = []ProjectItem{}
	}
	if p.Certifications == nil {
		p.Certifications = []CertificationItem{}
	}
	if p.Languages == nil {
		p.Languages = []LanguageItem{}
	}
	for i := range p.Skills {
		if p.Skills[i].ID == "" {
			p.Skills[i].ID = strconv.Itoa(i + 1)
		}
	}
}
