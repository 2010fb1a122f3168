package parser

import (
	"regexp"
	"strings"

	"job-applier-go/internal/types"
)

const nameScanLines = 5

var (
	namePattern = regexp.MustCompile(`^([A-Z][a-zA-Z-]+)\s+([A-Z][a-zA-Z-]+)(?:\s+[A-Z][a-zA-Z-]+)?$`)

	documentTitles = map[string]bool{"curriculum vitae": true, "resume": true, "cv": true}
)

// ExtractContactInfo 用正则提取联系方式，不调用任何外部服务
func ExtractContactInfo(text string) types.ContactInfo {
	var contact types.ContactInfo

	if m := EmailPattern.FindString(text); m != "" {
		contact.Email = strings.ToLower(m)
	}
	contact.Phone = PhonePattern.FindString(text)
	contact.LinkedIn = LinkedInPattern.FindString(text)
	contact.GitHub = GitHubPattern.FindString(text)

	emails := EmailPattern.FindAllStringIndex(text, -1)
	for _, loc := range PortfolioPattern.FindAllStringIndex(text, -1) {
		// 与任何邮箱地址重叠的匹配不算个人网站
		if overlapsAny(loc, emails) {
			continue
		}
		url := text[loc[0]:loc[1]]
		lower := strings.ToLower(url)
		if strings.Contains(lower, "linkedin") || strings.Contains(lower, "github") {
			continue
		}
		contact.Portfolio = url
		break
	}

	contact.FirstName, contact.LastName = ExtractNameFromHeader(text)
	return contact
}

func overlapsAny(span []int, others [][]int) bool {
	for _, o := range others {
		if span[0] < o[1] && o[0] < span[1] {
			return true
		}
	}
	return false
}

// ExtractNameFromHeader 在前 5 个非空行里找 2 到 3 个首字母大写的单词作为姓名
func ExtractNameFromHeader(text string) (firstName, lastName string) {
	scanned := 0
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if scanned == nameScanLines {
			break
		}
		scanned++

		if !looksLikeName(line) {
			continue
		}
		parts := strings.Fields(line)
		return parts[0], strings.Join(parts[1:], " ")
	}
	return "", ""
}

func looksLikeName(line string) bool {
	if strings.ContainsAny(line, "@+") || strings.Contains(line, "http") {
		return false
	}
	if documentTitles[strings.ToLower(line)] {
		return false
	}
	if _, isHeader := MatchSectionHeader(line); isHeader {
		return false
	}
	return namePattern.MatchString(line)
}
