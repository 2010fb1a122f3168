package types

import (
	"encoding/json"
)

// JobPreferences 求职偏好
type JobPreferences struct {
	PreferredRole string   `json:"preferredRole,omitempty"`
	Location      string   `json:"location,omitempty"`
	OpenToRemote  *bool    `json:"openToRemote,omitempty"`
	ContractTypes []string `json:"contractTypes,omitempty"`
	DaysOld       int      `json:"daysOld,omitempty"`
}

// IsEmpty 偏好是否完全未填写
func (p JobPreferences) IsEmpty() bool {
	return p.PreferredRole == "" && p.Location == "" && !p.RemoteOrDefault(false) && len(p.ContractTypes) == 0
}

// RemoteOrDefault 返回 openToRemote，未填写时返回 def
func (p JobPreferences) RemoteOrDefault(def bool) bool {
	if p.OpenToRemote == nil {
		return def
	}
	return *p.OpenToRemote
}

// UserContact 前端保存的联系方式，phone 与 phoneNumber 均可
type UserContact struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	GitHub    string `json:"github,omitempty"`
}

// UserProfile 调用方传入的用户档案
// 兼容 experience/experiences 两种键，偏好既可以在顶层也可以在 preferences 下
type UserProfile struct {
	ContactInfo        UserContact         `json:"contactInfo"`
	Title              string              `json:"title,omitempty"`
	Skills             []SkillItem         `json:"skills,omitempty"`
	Experiences        []ExperienceItem    `json:"experiences,omitempty"`
	Education          []EducationItem     `json:"education,omitempty"`
	Projects           []ProjectItem       `json:"projects,omitempty"`
	Certifications     []CertificationItem `json:"certifications,omitempty"`
	Languages          []LanguageItem      `json:"languages,omitempty"`
	SuggestedJobTitles []string            `json:"suggestedJobTitles,omitempty"`
	Preferences        JobPreferences      `json:"preferences"`
}

type userProfileWire struct {
	ContactInfo struct {
		UserContact
		PhoneNumber string `json:"phoneNumber"`
	} `json:"contactInfo"`
	Title              string              `json:"title"`
	Skills             []SkillItem         `json:"skills"`
	Experience         []ExperienceItem    `json:"experience"`
	Experiences        []ExperienceItem    `json:"experiences"`
	Education          []EducationItem     `json:"education"`
	Projects           []ProjectItem       `json:"projects"`
	Certifications     []CertificationItem `json:"certifications"`
	Languages          []LanguageItem      `json:"languages"`
	SuggestedJobTitles []string            `json:"suggestedJobTitles"`
	Preferences        *JobPreferences     `json:"preferences"`

	JobPreferences
}

// UnmarshalJSON 宽松解析前端/后端传来的各种档案形态
func (u *UserProfile) UnmarshalJSON(data []byte) error {
	var w userProfileWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	contact := w.ContactInfo.UserContact
	if w.ContactInfo.PhoneNumber != "" {
		contact.Phone = w.ContactInfo.PhoneNumber
	}

	experiences := w.Experience
	if len(experiences) == 0 {
		experiences = w.Experiences
	}

	prefs := w.JobPreferences
	if w.Preferences != nil {
		prefs = *w.Preferences
	}

	*u = UserProfile{
		ContactInfo:        contact,
		Title:              w.Title,
		Skills:             w.Skills,
		Experiences:        experiences,
		Education:          w.Education,
		Projects:           w.Projects,
		Certifications:     w.Certifications,
		Languages:          w.Languages,
		SuggestedJobTitles: w.SuggestedJobTitles,
		Preferences:        prefs,
	}
	return nil
}

// IsEmpty 档案是否没有任何可用信息
func (u *UserProfile) IsEmpty() bool {
	if u == nil {
		return true
	}
	return u.ContactInfo == (UserContact{}) &&
		u.Title == "" &&
		len(u.Skills) == 0 &&
		len(u.Experiences) == 0 &&
		len(u.Education) == 0 &&
		len(u.Projects) == 0 &&
		len(u.Certifications) == 0 &&
		len(u.Languages) == 0 &&
		len(u.SuggestedJobTitles) == 0 &&
		u.Preferences.IsEmpty()
}

// FromStructured 把抽取结果转换成代理使用的档案
func FromStructured(p *StructuredProfile) *UserProfile {
	if p == nil {
		return &UserProfile{}
	}
	return &UserProfile{
		ContactInfo: UserContact{
			FirstName: p.ContactInfo.FirstName,
			LastName:  p.ContactInfo.LastName,
			Email:     p.ContactInfo.Email,
			Phone:     p.ContactInfo.Phone,
			LinkedIn:  p.ContactInfo.LinkedIn,
			GitHub:    p.ContactInfo.GitHub,
		},
		Skills:         p.Skills,
		Experiences:    p.Experiences,
		Education:      p.Education,
		Projects:       p.Projects,
		Certifications: p.Certifications,
		Languages:      p.Languages,
	}
}
