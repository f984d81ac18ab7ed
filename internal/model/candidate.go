package model

import (
	"time"

	"gorm.io/datatypes"
)

// Candidate 表示求职者档案，匹配引擎只读。
type Candidate struct {
	ID                 string                         `gorm:"primaryKey" json:"id"`
	Email              string                         `gorm:"index" json:"email"`
	Name               string                         `json:"name"`
	Skills             datatypes.JSONSlice[string]    `json:"skills"`
	DreamJobTitle      string                         `json:"dream_job_title"`
	PreferredJobTypes  datatypes.JSONSlice[string]    `json:"preferred_job_types"`
	WorkEnvPreferences datatypes.JSONSlice[string]    `json:"work_env_preferences"`
	ResidentCountry    string                         `json:"resident_country"`
	PreferredLocations datatypes.JSONSlice[string]    `json:"preferred_locations"`
	WillingToRelocate  bool                           `json:"willing_to_relocate"`
	WorkHistory        datatypes.JSONSlice[WorkEntry] `json:"work_history"`
	NotInterested      datatypes.JSONSlice[Exclusion] `json:"not_interested"`
	Qualification      string                         `json:"qualification"`
	BrandingStatement  string                         `json:"branding_statement"`
	ResumeURL          string                         `json:"resume_url"`
	Education          datatypes.JSONSlice[Education] `json:"education"`
	Achievements       datatypes.JSONSlice[string]    `json:"achievements"`
	Licenses           datatypes.JSONSlice[string]    `json:"licenses"`
	Hobbies            datatypes.JSONSlice[string]    `json:"hobbies"`
	SocialLinks        SocialLinks                    `gorm:"embedded;embeddedPrefix:social_" json:"social_links"`
	EmergencyContact   Contact                        `gorm:"embedded;embeddedPrefix:emergency_" json:"emergency_contact"`
	CreatedAt          time.Time                      `json:"created_at"`
	UpdatedAt          time.Time                      `json:"updated_at"`
}

// WorkEntry 一段工作经历，按时间倒序存放，第一条为最近一份。
type WorkEntry struct {
	Title   string `json:"title"`
	Company string `json:"company"`
	Years   int    `json:"years,omitempty"`
}

// Education 教育经历。
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
}

// Exclusion 表示求职者不感兴趣的职位子类别；Category 为空时仅按子类别过滤。
type Exclusion struct {
	Category    string `json:"category,omitempty"`
	SubCategory string `json:"sub_category"`
}

type SocialLinks struct {
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
	Twitter  string `json:"twitter"`
	Website  string `json:"website"`
}

// Any 是否填写了任意社交链接。
func (s SocialLinks) Any() bool {
	return s.LinkedIn != "" || s.GitHub != "" || s.Twitter != "" || s.Website != ""
}

type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Present 是否填写了紧急联系人。
func (c Contact) Present() bool {
	return c.Name != "" || c.Phone != ""
}
