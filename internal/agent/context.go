package agent

import (
	"fmt"
	"strings"

	"job-applier-go/internal/types"
	"job-applier-go/pkg/utils"
)

// NoProfileContext 档案为空时的上下文文本
const NoProfileContext = "No user profile available."

const (
	maxContextSkills         = 30
	maxContextExperiences    = 6
	maxContextEducation      = 4
	maxContextProjects       = 6
	maxContextCertifications = 10
	maxRecentJobs            = 3

	experienceDescriptionLimit = 200
	projectDescriptionLimit    = 150
)

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// BuildUserContext 把档案渲染成所有代理共用的可读文本，输出只取决于输入
func BuildUserContext(p *types.UserProfile) string {
	if p.IsEmpty() {
		return NoProfileContext
	}

	var sections []string

	c := p.ContactInfo
	var contact []string
	if name := strings.TrimSpace(c.FirstName + " " + c.LastName); name != "" {
		contact = append(contact, "  Name: "+name)
	}
	if c.Email != "" {
		contact = append(contact, "  Email: "+c.Email)
	}
	if c.Phone != "" {
		contact = append(contact, "  Phone: "+c.Phone)
	}
	if c.LinkedIn != "" {
		contact = append(contact, "  LinkedIn: "+c.LinkedIn)
	}
	if c.GitHub != "" {
		contact = append(contact, "  GitHub: "+c.GitHub)
	}
	if len(contact) > 0 {
		sections = append(sections, "PERSONAL INFO:\n"+strings.Join(contact, "\n"))
	}

	if len(p.Skills) > 0 {
		lines := make([]string, 0, len(p.Skills))
		for _, s := range firstN(p.Skills, maxContextSkills) {
			level := s.Level
			if level == "" {
				level = "Intermediate"
			}
			lines = append(lines, fmt.Sprintf("  - %s (%s)", s.Name, level))
		}
		sections = append(sections, "SKILLS:\n"+strings.Join(lines, "\n"))
	}

	if len(p.Experiences) > 0 {
		lines := make([]string, 0, len(p.Experiences))
		for _, e := range firstN(p.Experiences, maxContextExperiences) {
			lines = append(lines, fmt.Sprintf("  - %s at %s (%s)\n    %s",
				e.Title, e.Company, e.Duration, utils.TruncateRunes(e.Description, experienceDescriptionLimit)))
		}
		sections = append(sections, "WORK EXPERIENCE:\n"+strings.Join(lines, "\n"))
	}

	if len(p.Education) > 0 {
		lines := make([]string, 0, len(p.Education))
		for _, e := range firstN(p.Education, maxContextEducation) {
			lines = append(lines, fmt.Sprintf("  - %s in %s — %s (%s)", e.Degree, e.Field, e.Institution, e.Duration))
		}
		sections = append(sections, "EDUCATION:\n"+strings.Join(lines, "\n"))
	}

	if len(p.Projects) > 0 {
		lines := make([]string, 0, len(p.Projects))
		for _, pr := range firstN(p.Projects, maxContextProjects) {
			name := pr.Name
			if name == "" {
				name = "Unnamed"
			}
			line := fmt.Sprintf("  - %s: %s", name, utils.TruncateRunes(pr.Description, projectDescriptionLimit))
			if pr.Link != "" {
				line += "\n    Link: " + pr.Link
			}
			lines = append(lines, line)
		}
		sections = append(sections, "PROJECTS:\n"+strings.Join(lines, "\n"))
	}

	if len(p.Certifications) > 0 {
		lines := make([]string, 0, len(p.Certifications))
		for _, cert := range firstN(p.Certifications, maxContextCertifications) {
			lines = append(lines, fmt.Sprintf("  - %s — %s (%s)", cert.Name, cert.Issuer, cert.Date))
		}
		sections = append(sections, "CERTIFICATIONS:\n"+strings.Join(lines, "\n"))
	}

	if len(p.Languages) > 0 {
		lines := make([]string, 0, len(p.Languages))
		for _, l := range p.Languages {
			lines = append(lines, fmt.Sprintf("  - %s (%s)", l.Name, l.Proficiency))
		}
		sections = append(sections, "LANGUAGES:\n"+strings.Join(lines, "\n"))
	}

	if prefs := p.Preferences; !prefs.IsEmpty() {
		var lines []string
		if prefs.PreferredRole != "" {
			lines = append(lines, "  Target Role: "+prefs.PreferredRole)
		}
		if prefs.Location != "" {
			lines = append(lines, "  Location: "+prefs.Location)
		}
		lines = append(lines, "  Open to Remote: "+yesNo(prefs.RemoteOrDefault(false)))
		if len(prefs.ContractTypes) > 0 {
			lines = append(lines, "  Contract Types: "+strings.Join(prefs.ContractTypes, ", "))
		}
		sections = append(sections, "JOB PREFERENCES:\n"+strings.Join(lines, "\n"))
	}

	return strings.Join(sections, "\n\n")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// BuildChatContext 在档案上下文后追加对话信封里的求职偏好和最近浏览的职位
func BuildChatContext(c types.ChatContext) string {
	out := BuildUserContext(&c.Profile)

	prefs := c.JobPreferences
	var lines []string
	if prefs.PreferredRole != "" {
		lines = append(lines, "  Target Role: "+prefs.PreferredRole)
	}
	if prefs.Location != "" {
		lines = append(lines, "  Preferred Location: "+prefs.Location)
	}
	if len(prefs.ContractTypes) > 0 {
		lines = append(lines, "  Contract Types: "+strings.Join(prefs.ContractTypes, ", "))
	}
	if prefs.RemoteOrDefault(false) {
		lines = append(lines, "  Open to Remote: Yes")
	}
	if len(lines) > 0 {
		out += "\n\nJOB PREFERENCES:\n" + strings.Join(lines, "\n")
	}

	if len(c.RecentJobs) > 0 {
		out += fmt.Sprintf("\n\nRECENT JOB APPLICATIONS (%d jobs viewed recently):", len(c.RecentJobs))
		for i, job := range firstN(c.RecentJobs, maxRecentJobs) {
			out += fmt.Sprintf("\n  %d. %s at %s", i+1, orUnknown(job.Title), orUnknown(job.Company))
		}
	}
	return out
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
