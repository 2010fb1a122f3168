package storage

import "time"

// EventProfileExtracted 档案抽取完成事件类型
const EventProfileExtracted = "profile.extracted"

// ProfileExtractedMessage 档案抽取完成后投递到 RabbitMQ 的消息
type ProfileExtractedMessage struct {
	RecordID          string    `json:"record_id"`
	Source            string    `json:"source"`
	OriginalFilename  string    `json:"original_filename,omitempty"`
	OriginalObjectKey string    `json:"original_object_key,omitempty"`
	TextMD5           string    `json:"text_md5"`
	Pipeline          string    `json:"pipeline"`
	CandidateName     string    `json:"candidate_name,omitempty"`
	CandidateEmail    string    `json:"candidate_email,omitempty"`
	ExperienceCount   int       `json:"experience_count"`
	EducationCount    int       `json:"education_count"`
	SkillCount        int       `json:"skill_count"`
	ExtractedAt       time.Time `json:"extracted_at"`
}
