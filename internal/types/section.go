package types

import (
	"bytes"
	"encoding/json"
)

// SectionLabel 简历分节标签
type SectionLabel string

const (
	SectionHeader         SectionLabel = "header"
	SectionExperience     SectionLabel = "experience"
	SectionEducation      SectionLabel = "education"
	SectionSkills         SectionLabel = "skills"
	SectionProjects       SectionLabel = "projects"
	SectionCertifications SectionLabel = "certifications"
	SectionSummary        SectionLabel = "summary"
	SectionLanguages      SectionLabel = "languages"
	SectionAwards         SectionLabel = "awards"
	SectionOther          SectionLabel = "other"
)

// AllSectionLabels 固定的标签集合
var AllSectionLabels = []SectionLabel{
	SectionHeader, SectionExperience, SectionEducation, SectionSkills, SectionProjects,
	SectionCertifications, SectionSummary, SectionLanguages, SectionAwards, SectionOther,
}

// SectionMap 标签到文本块的映射，保持文档中首次出现的顺序
type SectionMap struct {
	order  []SectionLabel
	blocks map[SectionLabel]string
}

// NewSectionMap 创建空的分节映射
func NewSectionMap() *SectionMap {
	return &SectionMap{blocks: make(map[SectionLabel]string)}
}

// Set 写入标签内容，已存在时覆盖
func (m *SectionMap) Set(label SectionLabel, text string) {
	if _, ok := m.blocks[label]; !ok {
		m.order = append(m.order, label)
	}
	m.blocks[label] = text
}

// Append 追加标签内容，与已有内容之间用换行连接
func (m *SectionMap) Append(label SectionLabel, text string) {
	existing, ok := m.blocks[label]
	if !ok || existing == "" {
		m.Set(label, text)
		return
	}
	if text == "" {
		return
	}
	m.blocks[label] = existing + "\n" + text
}

// Get 返回标签内容，不存在时为空字符串
func (m *SectionMap) Get(label SectionLabel) string {
	return m.blocks[label]
}

// Has 标签是否出现过
func (m *SectionMap) Has(label SectionLabel) bool {
	_, ok := m.blocks[label]
	return ok
}

// Labels 按出现顺序返回标签
func (m *SectionMap) Labels() []SectionLabel {
	out := make([]SectionLabel, len(m.order))
	copy(out, m.order)
	return out
}

// MarshalJSON 按出现顺序输出对象
func (m *SectionMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, label := range m.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(string(label))
		val, err := json.Marshal(m.blocks[label])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
